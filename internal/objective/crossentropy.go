package objective

import (
	"scenegan/internal/autograd"
	"scenegan/internal/sampling"
)

// CrossEntropy is the logits-stable binary cross-entropy objective. Targets
// come from one label buffer refilled in place: real, fake, then real again for
// the generator.
type CrossEntropy struct {
	labels *sampling.Labels
}

// NewCrossEntropy returns a cross-entropy objective with an empty label buffer.
func NewCrossEntropy() *CrossEntropy {
	return &CrossEntropy{labels: sampling.NewLabels(0, sampling.RealLabel)}
}

// RealLoss is BCE(score, 1).
func (c *CrossEntropy) RealLoss(score *autograd.Node) *autograd.Node {
	return c.against(score, sampling.RealLabel)
}

// FakeLossForDiscriminator is BCE(score, 0).
func (c *CrossEntropy) FakeLossForDiscriminator(score *autograd.Node) *autograd.Node {
	return c.against(score, sampling.FakeLabel)
}

// FakeLossForGenerator is BCE(score, 1): fake labels are real for the generator.
func (c *CrossEntropy) FakeLossForGenerator(score *autograd.Node) *autograd.Node {
	return c.against(score, sampling.RealLabel)
}

func (c *CrossEntropy) against(score *autograd.Node, label float64) *autograd.Node {
	if n := score.Value.Numel(); n != c.labels.Len() {
		c.labels.Resize(n)
	}
	c.labels.Fill(label)
	return autograd.BCEWithLogits(score, c.labels.Values())
}
