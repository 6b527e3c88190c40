package testutil

import "math"

// Linspace returns n evenly spaced values from a to b inclusive.
func Linspace(a, b float64, n int) []float64 {
	if n == 1 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}

// Logspace returns n logarithmically spaced values from 10^a to 10^b
// inclusive.
func Logspace(a, b float64, n int) []float64 {
	out := Linspace(a, b, n)
	for i, v := range out {
		out[i] = math.Pow(10, v)
	}
	return out
}
