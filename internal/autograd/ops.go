package autograd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"scenegan/internal/tensor"
)

// Linear computes x·Wᵀ + b for x [B, in], w [out, in], b [out].
func Linear(x, w, b *Node) *Node {
	if len(x.Shape()) != 2 || len(w.Shape()) != 2 || x.Shape()[1] != w.Shape()[1] {
		panic(fmt.Sprintf("autograd: Linear shapes x=%v w=%v", x.Shape(), w.Shape()))
	}
	batch, in := x.Shape()[0], x.Shape()[1]
	outDim := w.Shape()[0]
	if b.Value.Numel() != outDim {
		panic(fmt.Sprintf("autograd: Linear bias has %d values, want %d", b.Value.Numel(), outDim))
	}

	xm := mat.NewDense(batch, in, x.Value.Data)
	wm := mat.NewDense(outDim, in, w.Value.Data)
	out := tensor.New(batch, outDim)
	ym := mat.NewDense(batch, outDim, out.Data)
	ym.Mul(xm, wm.T())
	for r := 0; r < batch; r++ {
		floats.Add(out.Data[r*outDim:(r+1)*outDim], b.Value.Data)
	}

	return newOp(out, func(o *Node) {
		gy := mat.NewDense(batch, outDim, o.Grad)
		if x.requiresGrad {
			var gx mat.Dense
			gx.Mul(gy, wm)
			accumulate(x, denseData(&gx))
		}
		if w.requiresGrad {
			var gw mat.Dense
			gw.Mul(gy.T(), xm)
			accumulate(w, denseData(&gw))
		}
		if b.requiresGrad {
			for r := 0; r < batch; r++ {
				floats.Add(b.Grad, o.Grad[r*outDim:(r+1)*outDim])
			}
		}
	}, x, w, b)
}

// Reshape returns a view of x with a new shape.
func Reshape(x *Node, shape ...int) *Node {
	out := x.Value.Reshape(shape...)
	return newOp(out, func(o *Node) {
		accumulate(x, o.Grad)
	}, x)
}

// Flatten reshapes x to [x.Shape[0], rest].
func Flatten(x *Node) *Node {
	batch := x.Shape()[0]
	return Reshape(x, batch, x.Value.Numel()/batch)
}

// ReLU applies max(0, x).
func ReLU(x *Node) *Node {
	return LeakyReLU(x, 0)
}

// LeakyReLU applies x for x > 0 and alpha*x otherwise.
func LeakyReLU(x *Node, alpha float64) *Node {
	out := tensor.New(x.Shape()...)
	for i, v := range x.Value.Data {
		if v > 0 {
			out.Data[i] = v
		} else {
			out.Data[i] = alpha * v
		}
	}
	return newOp(out, func(o *Node) {
		g := make([]float64, len(o.Grad))
		for i, v := range x.Value.Data {
			if v > 0 {
				g[i] = o.Grad[i]
			} else {
				g[i] = alpha * o.Grad[i]
			}
		}
		accumulate(x, g)
	}, x)
}

// Tanh applies the hyperbolic tangent.
func Tanh(x *Node) *Node {
	out := tensor.New(x.Shape()...)
	for i, v := range x.Value.Data {
		out.Data[i] = math.Tanh(v)
	}
	return newOp(out, func(o *Node) {
		g := make([]float64, len(o.Grad))
		for i, y := range out.Data {
			g[i] = o.Grad[i] * (1 - y*y)
		}
		accumulate(x, g)
	}, x)
}

// Sigmoid applies 1/(1+exp(-x)).
func Sigmoid(x *Node) *Node {
	out := tensor.New(x.Shape()...)
	for i, v := range x.Value.Data {
		out.Data[i] = sigmoid(v)
	}
	return newOp(out, func(o *Node) {
		g := make([]float64, len(o.Grad))
		for i, y := range out.Data {
			g[i] = o.Grad[i] * y * (1 - y)
		}
		accumulate(x, g)
	}, x)
}

// Mul multiplies two equally shaped nodes element-wise.
func Mul(a, b *Node) *Node {
	if a.Value.Numel() != b.Value.Numel() {
		panic(fmt.Sprintf("autograd: Mul shapes %v and %v", a.Shape(), b.Shape()))
	}
	out := tensor.New(a.Shape()...)
	floats.MulTo(out.Data, a.Value.Data, b.Value.Data)
	return newOp(out, func(o *Node) {
		if a.requiresGrad {
			g := make([]float64, len(o.Grad))
			floats.MulTo(g, o.Grad, b.Value.Data)
			accumulate(a, g)
		}
		if b.requiresGrad {
			g := make([]float64, len(o.Grad))
			floats.MulTo(g, o.Grad, a.Value.Data)
			accumulate(b, g)
		}
	}, a, b)
}

// Add sums two equally shaped nodes element-wise.
func Add(a, b *Node) *Node {
	if a.Value.Numel() != b.Value.Numel() {
		panic(fmt.Sprintf("autograd: Add shapes %v and %v", a.Shape(), b.Shape()))
	}
	out := tensor.New(a.Shape()...)
	floats.AddTo(out.Data, a.Value.Data, b.Value.Data)
	return newOp(out, func(o *Node) {
		accumulate(a, o.Grad)
		accumulate(b, o.Grad)
	}, a, b)
}

// ScaleBy multiplies every element of x by the single value of s.
func ScaleBy(x, s *Node) *Node {
	k := s.Scalar()
	out := x.Value.Clone()
	floats.Scale(k, out.Data)
	return newOp(out, func(o *Node) {
		if x.requiresGrad {
			g := append([]float64(nil), o.Grad...)
			floats.Scale(k, g)
			accumulate(x, g)
		}
		if s.requiresGrad {
			s.Grad[0] += floats.Dot(o.Grad, x.Value.Data)
		}
	}, x, s)
}

// Affine computes scale*x + shift with constant coefficients.
func Affine(x *Node, scale, shift float64) *Node {
	out := x.Value.Clone()
	floats.Scale(scale, out.Data)
	floats.AddConst(shift, out.Data)
	return newOp(out, func(o *Node) {
		g := append([]float64(nil), o.Grad...)
		floats.Scale(scale, g)
		accumulate(x, g)
	}, x)
}

// Mean averages all elements into a scalar.
func Mean(x *Node) *Node {
	n := float64(x.Value.Numel())
	out := tensor.FromData([]float64{floats.Sum(x.Value.Data) / n}, 1)
	return newOp(out, func(o *Node) {
		g := make([]float64, x.Value.Numel())
		floats.AddConst(o.Grad[0]/n, g)
		accumulate(x, g)
	}, x)
}

// BCEWithLogits returns the mean binary cross-entropy between sigmoid(logits)
// and targets, computed without forming the probabilities.
func BCEWithLogits(logits *Node, targets []float64) *Node {
	if logits.Value.Numel() != len(targets) {
		panic(fmt.Sprintf("autograd: BCEWithLogits has %d logits and %d targets", logits.Value.Numel(), len(targets)))
	}
	n := float64(len(targets))
	y := append([]float64(nil), targets...)
	sum := 0.0
	for i, x := range logits.Value.Data {
		sum += math.Max(x, 0) - x*y[i] + math.Log1p(math.Exp(-math.Abs(x)))
	}
	out := tensor.FromData([]float64{sum / n}, 1)
	return newOp(out, func(o *Node) {
		g := make([]float64, len(y))
		for i, x := range logits.Value.Data {
			g[i] = o.Grad[0] * (sigmoid(x) - y[i]) / n
		}
		accumulate(logits, g)
	}, logits)
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// denseData returns the row-major backing data of m, copying when the
// stride differs from the column count.
func denseData(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, raw.Data[r*raw.Stride:r*raw.Stride+raw.Cols]...)
	}
	return out
}
