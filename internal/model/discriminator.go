package model

import (
	"math/rand"

	"scenegan/internal/autograd"
)

const leakySlope = 0.2

// Discriminator scores images [B, C, H, W] with one raw logit per sample.
type Discriminator struct {
	shape ImageShape
	body  *stack
}

// NewDiscriminator builds a discriminator of the given family.
func NewDiscriminator(arch Arch, hidden int, shape ImageShape) (*Discriminator, error) {
	if _, err := ParseArch(string(arch)); err != nil {
		return nil, err
	}
	if err := checkDims("discriminator", hidden, shape.Channels, shape.Height, shape.Width); err != nil {
		return nil, err
	}
	return &Discriminator{
		shape: shape,
		body:  newStack("netD", arch, shape.Size(), hidden, 1),
	}, nil
}

// Forward returns scores shaped [B].
func (d *Discriminator) Forward(x *autograd.Node) Output {
	leaky := func(n *autograd.Node) *autograd.Node { return autograd.LeakyReLU(n, leakySlope) }
	out, maps := d.body.forward(autograd.Flatten(x), leaky)
	return Output{Primary: autograd.Reshape(out, x.Shape()[0]), Auxiliary: maps}
}

// Parameters returns the learnable tensors in a stable order.
func (d *Discriminator) Parameters() []*autograd.Node {
	return d.body.params()
}

// Init re-draws all parameters from rng.
func (d *Discriminator) Init(rng *rand.Rand) {
	d.body.init(rng)
}
