package interp

import (
	"errors"
	"math"
	"testing"
)

func TestSplineReproducesNodes(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 2, 5, 4}
	s, err := NewSpline(x, y)
	if err != nil {
		t.Fatal(err)
	}
	for i := range x {
		if got := s.Eval(x[i]); math.Abs(got-y[i]) > 1e-13 {
			t.Errorf("Eval(%v) = %v, want %v", x[i], got, y[i])
		}
	}
}

func TestSplineSmoothFunction(t *testing.T) {
	// Dense grid through sin(x): mid-interval error should be tiny.
	var x, y []float64
	for i := 0; i <= 50; i++ {
		xv := float64(i) * math.Pi / 50
		x = append(x, xv)
		y = append(y, math.Sin(xv))
	}
	s, err := NewSpline(x, y)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		xv := (x[i] + x[i+1]) / 2
		if got := s.Eval(xv); math.Abs(got-math.Sin(xv)) > 1e-6 {
			t.Fatalf("Eval(%v) = %v, want %v", xv, got, math.Sin(xv))
		}
	}
}

func TestSplineErrors(t *testing.T) {
	if _, err := NewSpline([]float64{0, 1}, []float64{0, 1}); !errors.Is(err, ErrShortGrid) {
		t.Errorf("want ErrShortGrid, got %v", err)
	}
	if _, err := NewSpline([]float64{0, 1, 1}, []float64{0, 1, 2}); !errors.Is(err, ErrNotIncreasing) {
		t.Errorf("want ErrNotIncreasing, got %v", err)
	}
	if _, err := NewSpline([]float64{0, 1, 2}, []float64{0, 1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("want ErrLengthMismatch, got %v", err)
	}
}

func TestCSpline(t *testing.T) {
	var x []float64
	var y []complex128
	for i := 0; i <= 40; i++ {
		xv := float64(i) / 10
		x = append(x, xv)
		y = append(y, complex(math.Cos(xv), math.Sin(xv)))
	}
	s, err := NewCSpline(x, y)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Eval(1.234)
	want := complex(math.Cos(1.234), math.Sin(1.234))
	if math.Abs(real(got)-real(want)) > 1e-6 || math.Abs(imag(got)-imag(want)) > 1e-6 {
		t.Errorf("Eval = %v, want %v", got, want)
	}
}
