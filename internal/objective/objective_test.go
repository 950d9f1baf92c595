package objective

import (
	"math"
	"testing"

	"scenegan/internal/autograd"
	"scenegan/internal/tensor"
)

func scores(vs ...float64) *autograd.Node {
	return autograd.Constant(tensor.FromData(vs, len(vs)))
}

func TestHingeRealLossSaturates(t *testing.T) {
	h := Hinge{}
	prev := math.Inf(1)
	for s := -3.0; s <= 4; s += 0.25 {
		loss := h.RealLoss(scores(s, s)).Scalar()
		if loss > prev {
			t.Fatalf("hinge real loss increased at score %.2f: %f > %f", s, loss, prev)
		}
		if s >= 1 && loss != 0 {
			t.Fatalf("hinge real loss should be 0 for score %.2f, got %f", s, loss)
		}
		prev = loss
	}
}

func TestHingeFakeLossForDiscriminator(t *testing.T) {
	h := Hinge{}
	if got := h.FakeLossForDiscriminator(scores(-2, 0)).Scalar(); got != 0.5 {
		t.Fatalf("mean(relu(1+s)) for [-2,0] = %f want 0.5", got)
	}
	if got := h.FakeLossForGenerator(scores(-2, 0)).Scalar(); got != 1 {
		t.Fatalf("-mean(s) for [-2,0] = %f want 1", got)
	}
}

func TestCrossEntropyRealLossStrictlyDecreasing(t *testing.T) {
	c := NewCrossEntropy()
	prev := math.Inf(1)
	for s := -10.0; s <= 10; s += 0.5 {
		loss := c.RealLoss(scores(s)).Scalar()
		if !(loss < prev) {
			t.Fatalf("BCE real loss not strictly decreasing at logit %.1f: %g >= %g", s, loss, prev)
		}
		prev = loss
	}
}

func TestCrossEntropyMatchesDefinition(t *testing.T) {
	c := NewCrossEntropy()
	s := 0.3
	p := 1 / (1 + math.Exp(-s))
	if got, want := c.RealLoss(scores(s)).Scalar(), -math.Log(p); math.Abs(got-want) > 1e-12 {
		t.Fatalf("real loss %f want %f", got, want)
	}
	if got, want := c.FakeLossForDiscriminator(scores(s)).Scalar(), -math.Log(1-p); math.Abs(got-want) > 1e-12 {
		t.Fatalf("fake loss %f want %f", got, want)
	}
}

func TestCrossEntropyTracksBatchSize(t *testing.T) {
	c := NewCrossEntropy()
	c.RealLoss(scores(1, 2, 3, 4))
	loss := c.FakeLossForDiscriminator(scores(0, 0))
	if math.Abs(loss.Scalar()-math.Log(2)) > 1e-12 {
		t.Fatalf("unexpected loss %f after shrinking batch", loss.Scalar())
	}
}

// Generator loss falls as the discriminator scores fakes as more real.
func TestGeneratorLossDecreasesWithHigherFakeScores(t *testing.T) {
	for _, name := range []string{NameCrossEntropy, NameHinge} {
		obj, err := New(name)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		low := obj.FakeLossForGenerator(scores(0.1, 0.1)).Scalar()
		high := obj.FakeLossForGenerator(scores(0.9, 0.9)).Scalar()
		if !(high < low) {
			t.Fatalf("%s: generator loss %f at 0.9 not below %f at 0.1", name, high, low)
		}
		dLow := obj.FakeLossForDiscriminator(scores(0.1, 0.1)).Scalar()
		dHigh := obj.FakeLossForDiscriminator(scores(0.9, 0.9)).Scalar()
		if !(dHigh > dLow) {
			t.Fatalf("%s: discriminator fake loss should rise with fake scores", name)
		}
	}
}

func TestLossGradientsFlowToScores(t *testing.T) {
	score := autograd.NewParameter("score", 2)
	score.Value.Data[0], score.Value.Data[1] = 0.9, 0.9
	autograd.Backward(Hinge{}.FakeLossForGenerator(score))
	for i, g := range score.Grad {
		if g != -0.5 {
			t.Fatalf("grad[%d]=%f want -0.5", i, g)
		}
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New("wasserstein"); err == nil {
		t.Fatal("expected error for unknown objective")
	}
}
