package testutil

import (
	"math"
	"testing"
)

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}

	RequireSliceNearlyEqual(t, got, want, 1e-15)
}

func TestLinspaceSinglePoint(t *testing.T) {
	got := Linspace(3, 7, 1)
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("Linspace(3, 7, 1) = %v, want [3]", got)
	}
}

func TestLogspace(t *testing.T) {
	got := Logspace(-1, 2, 4)
	want := []float64{0.1, 1, 10, 100}

	for i := range got {
		if math.Abs(got[i]-want[i])/want[i] > 1e-14 {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
