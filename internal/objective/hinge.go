package objective

import "scenegan/internal/autograd"

// Hinge is the margin objective used with attention GANs. It needs no labels.
type Hinge struct{}

// RealLoss is mean(relu(1 - score)).
func (Hinge) RealLoss(score *autograd.Node) *autograd.Node {
	return autograd.Mean(autograd.ReLU(autograd.Affine(score, -1, 1)))
}

// FakeLossForDiscriminator is mean(relu(1 + score)).
func (Hinge) FakeLossForDiscriminator(score *autograd.Node) *autograd.Node {
	return autograd.Mean(autograd.ReLU(autograd.Affine(score, 1, 1)))
}

// FakeLossForGenerator is -mean(score).
func (Hinge) FakeLossForGenerator(score *autograd.Node) *autograd.Node {
	return autograd.Affine(autograd.Mean(score), -1, 0)
}
