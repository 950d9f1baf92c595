package model

import (
	"math/rand"

	"github.com/pkg/errors"

	"scenegan/internal/autograd"
)

const initStd = 0.02

type linear struct {
	weight *autograd.Node
	bias   *autograd.Node
}

func newLinear(name string, in, out int) *linear {
	return &linear{
		weight: autograd.NewParameter(name+".weight", out, in),
		bias:   autograd.NewParameter(name+".bias", out),
	}
}

func (l *linear) forward(x *autograd.Node) *autograd.Node {
	return autograd.Linear(x, l.weight, l.bias)
}

func (l *linear) params() []*autograd.Node {
	return []*autograd.Node{l.weight, l.bias}
}

// init draws weights from N(0, 0.02) and zeroes the bias.
func (l *linear) init(rng *rand.Rand) {
	for i := range l.weight.Value.Data {
		l.weight.Value.Data[i] = rng.NormFloat64() * initStd
	}
	l.bias.Value.Fill(0)
}

// attentionGate rescales each feature by a learned sigmoid map of the whole
// feature vector and scales the result with gamma as a residual term:
// h + gamma * (h ⊙ σ(Wh+b)).
type attentionGate struct {
	proj  *linear
	gamma *autograd.Node
}

func newAttentionGate(name string, width int) *attentionGate {
	return &attentionGate{
		proj:  newLinear(name+".proj", width, width),
		gamma: autograd.NewParameter(name+".gamma", 1),
	}
}

func (g *attentionGate) forward(h *autograd.Node) (*autograd.Node, *autograd.Node) {
	attn := autograd.Sigmoid(g.proj.forward(h))
	return autograd.Add(h, autograd.ScaleBy(autograd.Mul(h, attn), g.gamma)), attn
}

func (g *attentionGate) params() []*autograd.Node {
	return append(g.proj.params(), g.gamma)
}

func (g *attentionGate) init(rng *rand.Rand) {
	g.proj.init(rng)
	g.gamma.Value.Fill(0)
}

// stack holds three dense layers with optional gates after the first two.
type stack struct {
	layers [3]*linear
	gates  []*attentionGate
}

func newStack(prefix string, arch Arch, in, hidden, out int) *stack {
	s := &stack{layers: [3]*linear{
		newLinear(prefix+".fc1", in, hidden),
		newLinear(prefix+".fc2", hidden, hidden),
		newLinear(prefix+".fc3", hidden, out),
	}}
	if arch == SAGAN {
		s.gates = []*attentionGate{
			newAttentionGate(prefix+".attn1", hidden),
			newAttentionGate(prefix+".attn2", hidden),
		}
	}
	return s
}

func (s *stack) forward(x *autograd.Node, act func(*autograd.Node) *autograd.Node) (*autograd.Node, []*autograd.Node) {
	var maps []*autograd.Node
	h := x
	for i := 0; i < 2; i++ {
		h = act(s.layers[i].forward(h))
		if s.gates != nil {
			var m *autograd.Node
			h, m = s.gates[i].forward(h)
			maps = append(maps, m)
		}
	}
	return s.layers[2].forward(h), maps
}

func (s *stack) params() []*autograd.Node {
	var out []*autograd.Node
	for i, l := range s.layers {
		out = append(out, l.params()...)
		if s.gates != nil && i < len(s.gates) {
			out = append(out, s.gates[i].params()...)
		}
	}
	return out
}

func (s *stack) init(rng *rand.Rand) {
	for i, l := range s.layers {
		l.init(rng)
		if s.gates != nil && i < len(s.gates) {
			s.gates[i].init(rng)
		}
	}
}

func checkDims(what string, dims ...int) error {
	for _, d := range dims {
		if d <= 0 {
			return errors.Errorf("model: %s dimensions must be > 0 (got %v)", what, dims)
		}
	}
	return nil
}
