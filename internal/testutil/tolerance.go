// Package testutil provides shared assertion helpers and grid generators
// for the numeric test suites.
package testutil

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireRelClose fails t if got and want differ by more than rtol in
// relative terms (absolute near zero).
func RequireRelClose(t *testing.T, got, want, rtol float64) {
	t.Helper()
	diff := math.Abs(got - want)
	scale := math.Max(math.Abs(got), math.Abs(want))
	if scale == 0 {
		return
	}
	if diff/scale > rtol {
		t.Fatalf("got %v, want %v (rtol %v, rel diff %v)", got, want, rtol, diff/scale)
	}
}

// RequireCmplxClose fails t if got and want differ by more than rtol
// relative to |want|.
func RequireCmplxClose(t *testing.T, got, want complex128, rtol float64) {
	t.Helper()
	scale := cmplx.Abs(want)
	if scale == 0 {
		scale = 1
	}
	if cmplx.Abs(got-want)/scale > rtol {
		t.Fatalf("got %v, want %v (rtol %v, rel diff %v)",
			got, want, rtol, cmplx.Abs(got-want)/scale)
	}
}

// RequireCmplxSliceClose fails t on the first element pair of got and want
// that differs by more than rtol relative to the largest magnitude in want.
func RequireCmplxSliceClose(t *testing.T, got, want []complex128, rtol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	scale := 0.0
	for _, w := range want {
		if a := cmplx.Abs(w); a > scale {
			scale = a
		}
	}
	if scale == 0 {
		scale = 1
	}
	for i := range got {
		if cmplx.Abs(got[i]-want[i])/scale > rtol {
			t.Fatalf("index %d: got %v, want %v (rtol %v, rel diff %v)",
				i, got[i], want[i], rtol, cmplx.Abs(got[i]-want[i])/scale)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireCmplxFinite fails t if any element has a NaN or Inf component.
func RequireCmplxFinite(t *testing.T, data []complex128) {
	t.Helper()
	for i, v := range data {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
