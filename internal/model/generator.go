package model

import (
	"math/rand"

	"scenegan/internal/autograd"
)

// Generator maps latent vectors [B, latentDim, 1, 1] to images [B, C, H, W]
// in [-1, 1].
type Generator struct {
	latentDim int
	shape     ImageShape
	body      *stack
}

// NewGenerator builds a generator of the given family. Parameters are zero
// until Init is called.
func NewGenerator(arch Arch, latentDim, hidden int, shape ImageShape) (*Generator, error) {
	if _, err := ParseArch(string(arch)); err != nil {
		return nil, err
	}
	if err := checkDims("generator", latentDim, hidden, shape.Channels, shape.Height, shape.Width); err != nil {
		return nil, err
	}
	return &Generator{
		latentDim: latentDim,
		shape:     shape,
		body:      newStack("netG", arch, latentDim, hidden, shape.Size()),
	}, nil
}

// Forward runs the generator.
func (g *Generator) Forward(z *autograd.Node) Output {
	out, maps := g.body.forward(autograd.Flatten(z), autograd.ReLU)
	img := autograd.Reshape(autograd.Tanh(out), z.Shape()[0], g.shape.Channels, g.shape.Height, g.shape.Width)
	return Output{Primary: img, Auxiliary: maps}
}

// Parameters returns the learnable tensors in a stable order.
func (g *Generator) Parameters() []*autograd.Node {
	return g.body.params()
}

// Init re-draws all parameters from rng.
func (g *Generator) Init(rng *rand.Rand) {
	g.body.init(rng)
}

// LatentDim returns the expected latent size.
func (g *Generator) LatentDim() int {
	return g.latentDim
}
