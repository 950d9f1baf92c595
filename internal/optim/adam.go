package optim

import (
	"math"

	"github.com/pkg/errors"

	"scenegan/internal/autograd"
)

const defaultEpsilon = 1e-8

// Adam implements the Adam update rule over a fixed parameter set:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g²
//	p -= lr * (m/(1-beta1^t)) / (sqrt(v/(1-beta2^t)) + eps)
type Adam struct {
	params  []*autograd.Node
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64

	m [][]float64
	v [][]float64
	t int
}

// NewAdam binds an optimizer to params.
func NewAdam(params []*autograd.Node, lr, beta1, beta2 float64) (*Adam, error) {
	if lr <= 0 {
		return nil, errors.Errorf("optim: learning rate must be > 0 (got %g)", lr)
	}
	if beta1 < 0 || beta1 >= 1 || beta2 < 0 || beta2 >= 1 {
		return nil, errors.Errorf("optim: betas must be in [0, 1) (got %g, %g)", beta1, beta2)
	}
	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, p.Value.Numel())
		v[i] = make([]float64, p.Value.Numel())
	}
	return &Adam{
		params:  params,
		lr:      lr,
		beta1:   beta1,
		beta2:   beta2,
		epsilon: defaultEpsilon,
		m:       m,
		v:       v,
	}, nil
}

// ZeroGrad clears the gradients of the bound parameters.
func (a *Adam) ZeroGrad() {
	autograd.ZeroGrad(a.params)
}

// Step applies one update using the currently accumulated gradients.
func (a *Adam) Step() {
	a.t++
	bias1 := 1 - math.Pow(a.beta1, float64(a.t))
	bias2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			mHat := m[j] / bias1
			vHat := v[j] / bias2
			p.Value.Data[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.epsilon)
		}
	}
}

// Steps returns how many updates have been applied.
func (a *Adam) Steps() int {
	return a.t
}
