// Package autograd implements a small reverse-mode differentiation graph over
// dense tensors.
//
// Graphs are built eagerly by calling ops on Nodes. Parameters are leaves whose
// gradients persist and accumulate across Backward calls until ZeroGrad, so two
// losses can contribute to one optimizer step. Intermediate gradients are reset
// on every Backward call.
package autograd

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"scenegan/internal/tensor"
)

// Node is a value in the computation graph.
type Node struct {
	Value *tensor.Tensor
	Grad  []float64

	name         string
	parents      []*Node
	backward     func()
	requiresGrad bool
	param        bool
}

// Constant wraps t as a leaf that never receives gradients.
func Constant(t *tensor.Tensor) *Node {
	return &Node{Value: t}
}

// NewParameter creates a trainable leaf with a persistent gradient buffer.
func NewParameter(name string, shape ...int) *Node {
	t := tensor.New(shape...)
	return &Node{
		Value:        t,
		Grad:         make([]float64, t.Numel()),
		name:         name,
		requiresGrad: true,
		param:        true,
	}
}

// Name returns the parameter name, empty for non-parameters.
func (n *Node) Name() string {
	return n.name
}

// Shape returns the shape of the node value.
func (n *Node) Shape() []int {
	return n.Value.Shape
}

// RequiresGrad reports whether backward passes reach this node.
func (n *Node) RequiresGrad() bool {
	return n.requiresGrad
}

// Scalar returns the single value of a scalar node.
func (n *Node) Scalar() float64 {
	if n.Value.Numel() != 1 {
		panic(fmt.Sprintf("autograd: Scalar on node with shape %v", n.Value.Shape))
	}
	return n.Value.Data[0]
}

// Detach returns a leaf sharing n's value but severed from its graph.
func Detach(n *Node) *Node {
	return &Node{Value: n.Value}
}

// ZeroGrad clears the gradient buffers of params in place.
func ZeroGrad(params []*Node) {
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Backward propagates d(root)/d(node) to every node reachable from root that
// requires gradients. root must be a scalar.
func Backward(root *Node) {
	if root.Value.Numel() != 1 {
		panic(fmt.Sprintf("autograd: Backward from non-scalar shape %v", root.Value.Shape))
	}
	if !root.requiresGrad {
		return
	}
	order := topoSort(root)
	for _, n := range order {
		if n.param {
			continue
		}
		if len(n.Grad) != n.Value.Numel() {
			n.Grad = make([]float64, n.Value.Numel())
		} else {
			for i := range n.Grad {
				n.Grad[i] = 0
			}
		}
	}
	root.Grad[0] += 1
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].backward != nil {
			order[i].backward()
		}
	}
}

func topoSort(root *Node) []*Node {
	var order []*Node
	visited := make(map[*Node]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n] || !n.requiresGrad {
			return
		}
		visited[n] = true
		for _, p := range n.parents {
			visit(p)
		}
		order = append(order, n)
	}
	visit(root)
	return order
}

// newOp builds a non-leaf node. backward receives the finished node so it can
// read the output gradient.
func newOp(value *tensor.Tensor, backward func(out *Node), parents ...*Node) *Node {
	out := &Node{Value: value, parents: parents}
	for _, p := range parents {
		if p.requiresGrad {
			out.requiresGrad = true
			break
		}
	}
	if out.requiresGrad {
		out.backward = func() { backward(out) }
	}
	return out
}

// accumulate adds g into n's gradient when n participates in backward.
func accumulate(n *Node, g []float64) {
	if !n.requiresGrad {
		return
	}
	floats.Add(n.Grad, g)
}
