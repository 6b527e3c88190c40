// Package interp implements natural cubic-spline interpolation on strictly
// increasing grids, for real and complex ordinates.
//
// The transform engines use it to move kernel evaluations from a coarse
// log-spaced grid onto the exact node sets a digital filter requires, and to
// read log-domain transform output at caller-requested points.
package interp

import (
	"errors"
	"sort"
)

var (
	// ErrShortGrid is returned when fewer than three samples are supplied.
	ErrShortGrid = errors.New("interp: need at least 3 samples")
	// ErrNotIncreasing is returned when the abscissae are not strictly
	// increasing.
	ErrNotIncreasing = errors.New("interp: abscissae must be strictly increasing")
	// ErrLengthMismatch is returned when abscissae and ordinates differ in
	// length.
	ErrLengthMismatch = errors.New("interp: length mismatch")
)

// Spline is a natural cubic spline over a strictly increasing grid.
// Evaluation outside the grid extrapolates with the boundary cubic.
type Spline struct {
	x, y, y2 []float64
}

// NewSpline constructs a natural cubic spline through (x[i], y[i]).
func NewSpline(x, y []float64) (*Spline, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if len(x) < 3 {
		return nil, ErrShortGrid
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, ErrNotIncreasing
		}
	}

	n := len(x)
	y2 := make([]float64, n)
	u := make([]float64, n)

	// Tridiagonal sweep for the second derivatives, natural boundary
	// conditions (y2 = 0 at both ends).
	for i := 1; i < n-1; i++ {
		sig := (x[i] - x[i-1]) / (x[i+1] - x[i-1])
		p := sig*y2[i-1] + 2
		y2[i] = (sig - 1) / p
		u[i] = (y[i+1]-y[i])/(x[i+1]-x[i]) - (y[i]-y[i-1])/(x[i]-x[i-1])
		u[i] = (6*u[i]/(x[i+1]-x[i-1]) - sig*u[i-1]) / p
	}
	for i := n - 2; i >= 0; i-- {
		y2[i] = y2[i]*y2[i+1] + u[i]
	}

	return &Spline{x: x, y: y, y2: y2}, nil
}

// Eval returns the spline value at xv.
func (s *Spline) Eval(xv float64) float64 {
	n := len(s.x)
	hi := sort.SearchFloat64s(s.x, xv)
	if hi <= 0 {
		hi = 1
	}
	if hi >= n {
		hi = n - 1
	}
	lo := hi - 1

	h := s.x[hi] - s.x[lo]
	a := (s.x[hi] - xv) / h
	b := (xv - s.x[lo]) / h
	return a*s.y[lo] + b*s.y[hi] +
		((a*a*a-a)*s.y2[lo]+(b*b*b-b)*s.y2[hi])*(h*h)/6
}

// EvalAll evaluates the spline at each element of xs into a new slice.
func (s *Spline) EvalAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, xv := range xs {
		out[i] = s.Eval(xv)
	}
	return out
}

// CSpline interpolates complex ordinates by splining real and imaginary
// parts independently.
type CSpline struct {
	re, im *Spline
}

// NewCSpline constructs a complex-valued natural cubic spline.
func NewCSpline(x []float64, y []complex128) (*CSpline, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	re := make([]float64, len(y))
	im := make([]float64, len(y))
	for i, v := range y {
		re[i] = real(v)
		im[i] = imag(v)
	}

	sre, err := NewSpline(x, re)
	if err != nil {
		return nil, err
	}
	sim, err := NewSpline(x, im)
	if err != nil {
		return nil, err
	}
	return &CSpline{re: sre, im: sim}, nil
}

// Eval returns the interpolated complex value at xv.
func (s *CSpline) Eval(xv float64) complex128 {
	return complex(s.re.Eval(xv), s.im.Eval(xv))
}

// EvalAll evaluates the spline at each element of xs into a new slice.
func (s *CSpline) EvalAll(xs []float64) []complex128 {
	out := make([]complex128, len(xs))
	for i, xv := range xs {
		out[i] = s.Eval(xv)
	}
	return out
}
