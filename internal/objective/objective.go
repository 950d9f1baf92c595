// Package objective implements the adversarial loss strategies.
package objective

import (
	"github.com/pkg/errors"

	"scenegan/internal/autograd"
)

// Objective maps discriminator scores to the three adversarial losses. All
// methods are pure functions of the score; callers run backward themselves.
type Objective interface {
	RealLoss(score *autograd.Node) *autograd.Node
	FakeLossForDiscriminator(score *autograd.Node) *autograd.Node
	FakeLossForGenerator(score *autograd.Node) *autograd.Node
}

// Names accepted by New.
const (
	NameCrossEntropy = "bce"
	NameHinge        = "hinge"
)

// New returns the objective registered under name.
func New(name string) (Objective, error) {
	switch name {
	case NameCrossEntropy:
		return NewCrossEntropy(), nil
	case NameHinge:
		return Hinge{}, nil
	default:
		return nil, errors.Errorf("objective: unknown variant %q (want %q or %q)", name, NameCrossEntropy, NameHinge)
	}
}
