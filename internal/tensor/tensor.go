package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a dense row-major float64 array.
type Tensor struct {
	Shape []int
	Data  []float64
}

// New allocates a zero tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float64, numel(shape))}
}

// FromData wraps data without copying. It panics when the shape does not
// cover data exactly.
func FromData(data []float64, shape ...int) *Tensor {
	if numel(shape) != len(data) {
		panic(fmt.Sprintf("tensor: shape %v does not match %d values", shape, len(data)))
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}
}

// Numel returns the number of elements.
func (t *Tensor) Numel() int {
	return len(t.Data)
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.Shape[i]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{Shape: append([]int(nil), t.Shape...), Data: append([]float64(nil), t.Data...)}
}

// Reshape returns a view sharing data with t.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	return FromData(t.Data, shape...)
}

// Head returns a view of the first n entries along dimension 0.
func (t *Tensor) Head(n int) *Tensor {
	if n >= t.Shape[0] {
		return t
	}
	stride := t.Numel() / t.Shape[0]
	shape := append([]int{n}, t.Shape[1:]...)
	return FromData(t.Data[:n*stride], shape...)
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.Data {
		t.Data[i] = v
	}
}

// MinMax returns the smallest and largest element.
func (t *Tensor) MinMax() (float64, float64) {
	if len(t.Data) == 0 {
		return 0, 0
	}
	return floats.Min(t.Data), floats.Max(t.Data)
}

// Equal reports whether both tensors have the same shape and bit-identical data.
func (t *Tensor) Equal(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) || len(t.Data) != len(o.Data) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return floats.Equal(t.Data, o.Data)
}

// Stack concatenates equally shaped samples along a new leading dimension.
func Stack(samples []*Tensor) *Tensor {
	if len(samples) == 0 {
		return New(0)
	}
	inner := samples[0].Shape
	out := New(append([]int{len(samples)}, inner...)...)
	stride := samples[0].Numel()
	for i, s := range samples {
		if s.Numel() != stride {
			panic(fmt.Sprintf("tensor: stack sample %d has %d values, want %d", i, s.Numel(), stride))
		}
		copy(out.Data[i*stride:], s.Data)
	}
	return out
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
