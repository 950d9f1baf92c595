package sampling

import "fmt"

// Label values used by the cross-entropy objective.
const (
	RealLabel = 1.0
	FakeLabel = 0.0
)

// Labels is a constant-valued target vector that is refilled in place between
// the phases of a training step.
type Labels struct {
	values []float64
}

// NewLabels returns n copies of v. It panics when n is negative.
func NewLabels(n int, v float64) *Labels {
	l := &Labels{}
	l.Resize(n)
	l.Fill(v)
	return l
}

// Resize changes the length, reusing the backing array when it is large enough.
// New entries are zero.
func (l *Labels) Resize(n int) {
	if n < 0 {
		panic(fmt.Sprintf("sampling: negative label count %d", n))
	}
	if n <= cap(l.values) {
		old := len(l.values)
		l.values = l.values[:n]
		for i := old; i < n; i++ {
			l.values[i] = 0
		}
		return
	}
	grown := make([]float64, n)
	copy(grown, l.values)
	l.values = grown
}

// Fill sets every entry to v without reallocating.
func (l *Labels) Fill(v float64) {
	for i := range l.values {
		l.values[i] = v
	}
}

// Len returns the number of labels.
func (l *Labels) Len() int {
	return len(l.values)
}

// Values exposes the backing slice. Callers must not retain it across Fill.
func (l *Labels) Values() []float64 {
	return l.values
}
