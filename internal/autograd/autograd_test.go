package autograd

import (
	"math"
	"math/rand"
	"testing"

	"scenegan/internal/tensor"
)

func TestLinearGradientMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := Constant(randomTensor(rng, 3, 4))
	w := NewParameter("w", 2, 4)
	b := NewParameter("b", 2)
	fillRandom(rng, w.Value)
	fillRandom(rng, b.Value)

	loss := func() *Node {
		return Mean(Tanh(Linear(x, w, b)))
	}
	Backward(loss())

	const eps = 1e-6
	for _, p := range []*Node{w, b} {
		for i := range p.Value.Data {
			orig := p.Value.Data[i]
			p.Value.Data[i] = orig + eps
			up := loss().Scalar()
			p.Value.Data[i] = orig - eps
			down := loss().Scalar()
			p.Value.Data[i] = orig
			numeric := (up - down) / (2 * eps)
			if math.Abs(numeric-p.Grad[i]) > 1e-6 {
				t.Fatalf("%s[%d]: analytic %.8f numeric %.8f", p.Name(), i, p.Grad[i], numeric)
			}
		}
	}
}

func TestBackwardAccumulatesIntoParameters(t *testing.T) {
	w := NewParameter("w", 1, 1)
	b := NewParameter("b", 1)
	w.Value.Data[0] = 2
	x := Constant(tensor.FromData([]float64{3}, 1, 1))

	Backward(Mean(Linear(x, w, b)))
	Backward(Mean(Linear(x, w, b)))
	if w.Grad[0] != 6 {
		t.Fatalf("expected accumulated grad 6, got %f", w.Grad[0])
	}
	ZeroGrad([]*Node{w, b})
	if w.Grad[0] != 0 || b.Grad[0] != 0 {
		t.Fatalf("ZeroGrad left w=%f b=%f", w.Grad[0], b.Grad[0])
	}
}

func TestDetachSeversGradientPath(t *testing.T) {
	upstream := NewParameter("up", 1, 2)
	upstream.Value.Data[0], upstream.Value.Data[1] = 0.5, 0.25
	zero := NewParameter("zero", 1)

	x := Constant(tensor.FromData([]float64{1, 2}, 1, 2))
	hidden := Linear(x, upstream, zero)
	detached := Detach(hidden)
	if detached.RequiresGrad() {
		t.Fatal("detached node must not require grad")
	}
	if &detached.Value.Data[0] != &hidden.Value.Data[0] {
		t.Fatal("detached node should share the value buffer")
	}

	w2 := NewParameter("w2", 1, 1)
	w2.Value.Data[0] = 1
	Backward(Mean(Linear(detached, w2, NewParameter("b2", 1))))
	for i, g := range upstream.Grad {
		if g != 0 {
			t.Fatalf("upstream grad[%d] = %f after detached backward", i, g)
		}
	}
	if w2.Grad[0] == 0 {
		t.Fatal("downstream parameter received no gradient")
	}
}

func TestBCEWithLogitsStableForLargeLogits(t *testing.T) {
	logits := NewParameter("logits", 2)
	logits.Value.Data[0], logits.Value.Data[1] = 800, -800
	loss := BCEWithLogits(logits, []float64{1, 0})
	if math.IsNaN(loss.Scalar()) || math.IsInf(loss.Scalar(), 0) {
		t.Fatalf("loss not finite: %f", loss.Scalar())
	}
	if loss.Scalar() > 1e-12 {
		t.Fatalf("expected ~0 loss for confident correct logits, got %g", loss.Scalar())
	}
	Backward(loss)
	for i, g := range logits.Grad {
		if math.IsNaN(g) {
			t.Fatalf("grad[%d] is NaN", i)
		}
	}
}

func TestMulAndSigmoidGradients(t *testing.T) {
	a := NewParameter("a", 3)
	copy(a.Value.Data, []float64{-1, 0.5, 2})
	gate := Sigmoid(a)
	loss := Mean(Mul(a, gate))
	Backward(loss)
	for i, v := range a.Value.Data {
		s := 1 / (1 + math.Exp(-v))
		want := (s + v*s*(1-s)) / 3
		if math.Abs(a.Grad[i]-want) > 1e-12 {
			t.Fatalf("grad[%d]=%f want %f", i, a.Grad[i], want)
		}
	}
}

func randomTensor(rng *rand.Rand, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	fillRandom(rng, t)
	return t
}

func fillRandom(rng *rand.Rand, t *tensor.Tensor) {
	for i := range t.Data {
		t.Data[i] = rng.NormFloat64()
	}
}
