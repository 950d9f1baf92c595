package model

import (
	"math/rand"

	"github.com/pkg/errors"

	"scenegan/internal/autograd"
)

// Arch selects the reference network family.
type Arch string

const (
	// DCGAN is a plain stack of dense layers.
	DCGAN Arch = "dcgan"
	// SAGAN adds two attention gates whose maps are returned as auxiliaries.
	SAGAN Arch = "sagan"
)

// ParseArch validates an architecture name.
func ParseArch(name string) (Arch, error) {
	switch Arch(name) {
	case DCGAN, SAGAN:
		return Arch(name), nil
	default:
		return "", errors.Errorf("model: unknown architecture %q", name)
	}
}

// ImageShape describes a single image in CHW order.
type ImageShape struct {
	Channels int
	Height   int
	Width    int
}

// Size returns the number of values in one image.
func (s ImageShape) Size() int {
	return s.Channels * s.Height * s.Width
}

// Output is the result of a forward pass. Auxiliary carries diagnostic
// tensors such as attention maps and is nil for plain networks.
type Output struct {
	Primary   *autograd.Node
	Auxiliary []*autograd.Node
}

// Network is a differentiable parameterized function.
type Network interface {
	Forward(x *autograd.Node) Output
	Parameters() []*autograd.Node
	Init(rng *rand.Rand)
}

// ParameterCount returns the number of learnable scalars in net.
func ParameterCount(net Network) int {
	total := 0
	for _, p := range net.Parameters() {
		total += p.Value.Numel()
	}
	return total
}
