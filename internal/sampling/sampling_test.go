package sampling

import (
	"reflect"
	"testing"
)

func TestNewLabelsConstant(t *testing.T) {
	for _, n := range []int{0, 1, 4, 257} {
		l := NewLabels(n, RealLabel)
		if l.Len() != n {
			t.Fatalf("len=%d want %d", l.Len(), n)
		}
		for i, v := range l.Values() {
			if v != RealLabel {
				t.Fatalf("labels[%d]=%f want %f", i, v, RealLabel)
			}
		}
	}
}

func TestLabelsFillInPlace(t *testing.T) {
	l := NewLabels(8, RealLabel)
	before := &l.Values()[0]
	l.Fill(FakeLabel)
	l.Fill(RealLabel)
	l.Fill(FakeLabel)
	if &l.Values()[0] != before {
		t.Fatal("Fill reallocated the label buffer")
	}
	for i, v := range l.Values() {
		if v != FakeLabel {
			t.Fatalf("labels[%d]=%f want %f", i, v, FakeLabel)
		}
	}
}

func TestLabelsResizeReusesCapacity(t *testing.T) {
	l := NewLabels(8, RealLabel)
	before := &l.Values()[0]
	l.Resize(3)
	l.Resize(8)
	if &l.Values()[0] != before {
		t.Fatal("shrinking and regrowing within capacity reallocated")
	}
	if l.Values()[7] != 0 {
		t.Fatalf("regrown entry should be zero, got %f", l.Values()[7])
	}
}

func TestNoiseShape(t *testing.T) {
	s := NewNoiseSource(1)
	for _, b := range []int{1, 4, 64} {
		n := s.Sample(b, 8)
		if !reflect.DeepEqual(n.Shape, []int{b, 8, 1, 1}) {
			t.Fatalf("shape=%v", n.Shape)
		}
	}
}

func TestNoiseReproducibleWithSeed(t *testing.T) {
	a := NewNoiseSource(42).Sample(4, 16)
	b := NewNoiseSource(42).Sample(4, 16)
	if !a.Equal(b) {
		t.Fatal("same seed produced different noise")
	}
}

func TestNoiseSuccessiveDrawsDiffer(t *testing.T) {
	s := NewNoiseSource(42)
	a := s.Sample(4, 16)
	b := s.Sample(4, 16)
	if a.Equal(b) {
		t.Fatal("successive draws were identical")
	}
}
