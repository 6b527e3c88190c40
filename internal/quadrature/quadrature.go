// Package quadrature provides the numerical-integration building blocks used
// by the transform engines: Gauss-Legendre node tables, globally adaptive
// Gauss-Kronrod integration on finite intervals, and Wynn's epsilon
// algorithm for sequence extrapolation.
//
// All routines are pure functions over their inputs; node tables are
// computed on demand and never mutated afterwards.
package quadrature

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrBadInterval is returned when an integration interval is empty or
// reversed.
var ErrBadInterval = errors.New("quadrature: invalid integration interval")

// GaussLegendre returns the nodes and weights of the n-point Gauss-Legendre
// rule on [-1, 1]. Nodes are in ascending order.
func GaussLegendre(n int) (nodes, weights []float64) {
	nodes = make([]float64, n)
	weights = make([]float64, n)

	m := (n + 1) / 2
	for i := 0; i < m; i++ {
		// Chebyshev-based initial guess, refined by Newton iteration on
		// the Legendre polynomial.
		x := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))

		var pp float64
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1.0, 0.0
			for j := 0; j < n; j++ {
				p2 := p1
				p1 = p0
				p0 = ((2*float64(j)+1)*x*p1 - float64(j)*p2) / float64(j+1)
			}
			// Derivative via the standard recurrence.
			pp = float64(n) * (x*p0 - p1) / (x*x - 1)
			dx := p0 / pp
			x -= dx
			if math.Abs(dx) < 1e-15 {
				break
			}
		}

		nodes[i] = -x
		nodes[n-1-i] = x
		w := 2 / ((1 - x*x) * pp * pp)
		weights[i] = w
		weights[n-1-i] = w
	}

	return nodes, weights
}

// Gauss-Kronrod 7-15 pair (QUADPACK constants), positive half.
var (
	kronrodNodes = [8]float64{
		0.991455371120813, 0.949107912342759, 0.864864423359769,
		0.741531185599394, 0.586087235467691, 0.405845151377397,
		0.207784955007898, 0.0,
	}
	kronrodWeights = [8]float64{
		0.022935322010529, 0.063092092629979, 0.104790010322250,
		0.140653259715525, 0.169004726639267, 0.190350578064785,
		0.204432940075298, 0.209482141084728,
	}
	gaussWeights = [4]float64{
		0.129484966168870, 0.279705391489277,
		0.381830050505119, 0.417959183673469,
	}
)

// gk15 evaluates the 15-point Kronrod and embedded 7-point Gauss estimates
// of the integral of f over [a, b] and returns the Kronrod value and the
// error estimate.
func gk15(f func(float64) complex128, a, b float64) (complex128, float64) {
	c := 0.5 * (a + b)
	h := 0.5 * (b - a)

	fc := f(c)
	resK := complex(kronrodWeights[7], 0) * fc
	resG := complex(gaussWeights[3], 0) * fc

	for i := 0; i < 7; i++ {
		dx := h * kronrodNodes[i]
		fsum := f(c-dx) + f(c+dx)
		resK += complex(kronrodWeights[i], 0) * fsum
		if i%2 == 1 {
			resG += complex(gaussWeights[i/2], 0) * fsum
		}
	}

	resK *= complex(h, 0)
	resG *= complex(h, 0)
	return resK, cmplx.Abs(resK - resG)
}

// AdaptiveResult reports the outcome of an adaptive integration.
type AdaptiveResult struct {
	Value        complex128
	ErrorEst     float64
	Subdivisions int
	Converged    bool
}

// Adaptive integrates f over [a, b] by globally adaptive Gauss-Kronrod
// bisection. It stops when the accumulated error estimate satisfies the
// absolute or relative tolerance, or when limit subdivisions have been
// spent. Running out of budget is not an error: the best available
// estimate is returned with Converged set to false.
func Adaptive(f func(float64) complex128, a, b float64, rtol, atol float64, limit int) (AdaptiveResult, error) {
	if !(b > a) {
		return AdaptiveResult{}, ErrBadInterval
	}
	if limit < 1 {
		limit = 1
	}

	type segment struct {
		a, b float64
		val  complex128
		err  float64
	}

	val, errEst := gk15(f, a, b)
	segs := []segment{{a, b, val, errEst}}
	total := val
	totalErr := errEst

	res := AdaptiveResult{Subdivisions: 1}
	for n := 1; n < limit; n++ {
		if totalErr <= atol || totalErr <= rtol*cmplx.Abs(total) {
			res.Converged = true
			break
		}

		// Split the segment with the largest error estimate.
		worst := 0
		for i := range segs {
			if segs[i].err > segs[worst].err {
				worst = i
			}
		}
		s := segs[worst]
		mid := 0.5 * (s.a + s.b)
		lv, le := gk15(f, s.a, mid)
		rv, re := gk15(f, mid, s.b)

		total += lv + rv - s.val
		totalErr += le + re - s.err
		segs[worst] = segment{s.a, mid, lv, le}
		segs = append(segs, segment{mid, s.b, rv, re})
		res.Subdivisions = n + 1
	}

	if totalErr <= atol || totalErr <= rtol*cmplx.Abs(total) {
		res.Converged = true
	}
	res.Value = total
	res.ErrorEst = totalErr
	return res, nil
}

// Epsilon applies Wynn's epsilon algorithm to the sequence of partial sums
// s and returns the extrapolated limit together with a crude error
// estimate (the difference between the last two accelerated values).
//
// The table is processed column by column; odd columns are auxiliary. For
// oscillatory, slowly converging tail sums this typically gains several
// orders of magnitude over the plain partial sums.
func Epsilon(s []complex128) (complex128, float64) {
	n := len(s)
	if n == 0 {
		return 0, math.Inf(1)
	}
	if n == 1 {
		return s[0], math.Inf(1)
	}

	const tiny = 1e-290

	cur := make([]complex128, n)
	copy(cur, s)
	prev := make([]complex128, n) // column k-1, implicitly zero for k=0

	best := cur[len(cur)-1]
	errEst := math.Inf(1)

	for k := 1; k < n; k++ {
		next := make([]complex128, n-k)
		for i := 0; i < n-k; i++ {
			d := cur[i+1] - cur[i]
			if cmplx.Abs(d) < tiny {
				// Converged to machine precision.
				return cur[i+1], cmplx.Abs(d)
			}
			next[i] = prev[i+1] + 1/d
		}
		if k%2 == 0 {
			newBest := next[len(next)-1]
			errEst = cmplx.Abs(newBest - best)
			best = newBest
		}
		prev = cur
		cur = next
	}

	return best, errEst
}
