package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-em/em/filters"
	"github.com/cwbudde/algo-em/internal/interp"
	"github.com/cwbudde/algo-em/internal/quadrature"
)

// HankelKernel evaluates the wavenumber-domain integrand containers on a
// batch of wavenumber rows. Each returned container is either nil or
// shaped like lambd. The kernel must depend on the wavenumber only, so
// that an engine is free to choose its own evaluation nodes.
type HankelKernel func(lambd [][]float64) (pj0, pj0b, pj1 [][]complex128, err error)

// HankelMethod selects the Hankel transform engine.
type HankelMethod int

const (
	// HankelDLF integrates with a digital linear filter. PtsPerDec
	// selects the variant: 0 evaluates the kernel at every filter
	// abscissa per offset, -1 uses lagged convolution on a shared
	// wavenumber set, positive values spline the kernel from a grid
	// with that many points per decade.
	HankelDLF HankelMethod = iota
	// HankelQWE uses Gauss-Legendre panels between Bessel-zero spaced
	// breakpoints and accelerates the partial sums with the epsilon
	// algorithm.
	HankelQWE
	// HankelQuad applies adaptive Gauss-Kronrod quadrature to a splined
	// kernel over a fixed wavenumber window.
	HankelQuad
)

// Diagnostics reports how much work a transform engine spent.
type Diagnostics struct {
	KernelEvals int
	Intervals   int
	Converged   bool
}

// HankelConfig tunes the Hankel engines. The zero value selects the
// standard 201-point filter DLF.
type HankelConfig struct {
	Method    HankelMethod
	Filter    string
	PtsPerDec int

	// QWE and adaptive quadrature.
	Rtol, Atol    float64
	NQuad, MaxInt int
	Limit         int

	// Wavenumber window of the adaptive quadrature engine.
	LambdaMin, LambdaMax float64
}

func (c HankelConfig) withDefaults() HankelConfig {
	if c.Filter == "" {
		c.Filter = "hankel201"
	}
	if c.Rtol == 0 {
		c.Rtol = 1e-12
	}
	if c.Atol == 0 {
		c.Atol = 1e-30
	}
	if c.NQuad == 0 {
		c.NQuad = 51
	}
	if c.MaxInt == 0 {
		c.MaxInt = 40
	}
	if c.Limit == 0 {
		c.Limit = 500
	}
	if c.LambdaMin == 0 {
		c.LambdaMin = 1e-6
	}
	if c.LambdaMax == 0 {
		c.LambdaMax = 0.1
	}
	return c
}

// Hankel transforms the kernel containers to the space domain:
//
//	EM(r) = H0{PJ0} + factAng*(H0{PJ0b} + H1{PJ1}[/r])
//
// with Hv{P} = Int P(lambda) Jv(lambda r) d(lambda), one value per
// offset. The optional 1/r on the J1 term is requested by j1PerOff for
// combinations whose J1 container stems from the (1/r) d/dr operator.
func Hankel(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	if len(off) == 0 {
		return nil, Diagnostics{}, errors.New("transform: no offsets")
	}
	if len(off) != len(factAng) {
		return nil, Diagnostics{}, errors.New("transform: off and factAng must have equal length")
	}
	for _, r := range off {
		if r <= 0 {
			return nil, Diagnostics{}, errors.New("transform: offsets must be positive")
		}
	}
	cfg = cfg.withDefaults()

	switch cfg.Method {
	case HankelDLF:
		switch {
		case cfg.PtsPerDec == 0:
			return hankelDLFStandard(kern, off, factAng, j1PerOff, cfg)
		case cfg.PtsPerDec < 0:
			return hankelDLFLagged(kern, off, factAng, j1PerOff, cfg)
		default:
			return hankelDLFSplined(kern, off, factAng, j1PerOff, cfg)
		}
	case HankelQWE:
		return hankelQWE(kern, off, factAng, j1PerOff, cfg)
	case HankelQuad:
		return hankelQuad(kern, off, factAng, j1PerOff, cfg)
	default:
		return nil, Diagnostics{}, fmt.Errorf("transform: unknown Hankel method %d", cfg.Method)
	}
}

func dotRW(p []complex128, w []float64) complex128 {
	var s complex128
	for i := range p {
		s += p[i] * complex(w[i], 0)
	}
	return s
}

// assemble merges the per-offset container transforms into the field
// value, applying the DLF 1/r where asked for.
func assemble(em0, em0b, em1 complex128, fact, off float64, j1PerOff bool) complex128 {
	if j1PerOff {
		em1 /= complex(off, 0)
	}
	return em0 + complex(fact, 0)*(em0b+em1)
}

func hankelDLFStandard(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	filt, err := filters.ByName(cfg.Filter)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	nb := len(filt.Base)

	lambd := make([][]float64, len(off))
	for i, r := range off {
		row := make([]float64, nb)
		for j, b := range filt.Base {
			row[j] = b / r
		}
		lambd[i] = row
	}

	pj0, pj0b, pj1, err := kern(lambd)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	out := make([]complex128, len(off))
	for i, r := range off {
		var em0, em0b, em1 complex128
		if pj0 != nil {
			em0 = dotRW(pj0[i], filt.J0)
		}
		if pj0b != nil {
			em0b = dotRW(pj0b[i], filt.J0)
		}
		if pj1 != nil {
			em1 = dotRW(pj1[i], filt.J1)
		}
		out[i] = assemble(em0, em0b, em1, factAng[i], r, j1PerOff) / complex(r, 0)
	}
	return out, Diagnostics{KernelEvals: len(off) * nb, Converged: true}, nil
}

func hankelDLFLagged(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	filt, err := filters.ByName(cfg.Filter)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	nb := len(filt.Base)

	rmin, rmax := minMax(off)
	nout := int(math.Ceil(math.Log(rmax/rmin)/filt.Delta)) + 1
	if nout < 3 {
		nout = 3
	}

	// The evaluation nodes of all lagged offsets live on one shared
	// log-spaced wavenumber set.
	nsuper := nb + nout - 1
	super := make([]float64, nsuper)
	for k := range super {
		super[k] = filt.Base[0] * math.Exp(float64(k)*filt.Delta) / rmax
	}

	pj0, pj0b, pj1, err := kern([][]float64{super})
	if err != nil {
		return nil, Diagnostics{}, err
	}

	// Lagged offsets descend from rmax; collect ascending for the
	// interpolation below.
	lnR := make([]float64, nout)
	em0 := make([]complex128, nout)
	em1 := make([]complex128, nout)
	for j := range nout {
		r := rmax * math.Exp(-float64(j)*filt.Delta)
		i := nout - 1 - j
		lnR[i] = math.Log(r)

		var v0, v0b, v1 complex128
		if pj0 != nil {
			v0 = dotRW(pj0[0][j:j+nb], filt.J0)
		}
		if pj0b != nil {
			v0b = dotRW(pj0b[0][j:j+nb], filt.J0)
		}
		if pj1 != nil {
			v1 = dotRW(pj1[0][j:j+nb], filt.J1)
			if j1PerOff {
				v1 /= complex(r, 0)
			}
		}
		em0[i] = v0 / complex(r, 0)
		em1[i] = (v0b + v1) / complex(r, 0)
	}

	s0, err := interp.NewCSpline(lnR, em0)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("transform: lagged interpolation: %w", err)
	}
	s1, err := interp.NewCSpline(lnR, em1)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("transform: lagged interpolation: %w", err)
	}

	out := make([]complex128, len(off))
	for i, r := range off {
		x := math.Log(r)
		out[i] = s0.Eval(x) + complex(factAng[i], 0)*s1.Eval(x)
	}
	return out, Diagnostics{KernelEvals: nsuper, Converged: true}, nil
}

func hankelDLFSplined(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	filt, err := filters.ByName(cfg.Filter)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	nb := len(filt.Base)

	rmin, rmax := minMax(off)
	lmin := filt.Base[0] / rmax
	lmax := filt.Base[nb-1] / rmin
	grid := logGrid(lmin, lmax, cfg.PtsPerDec)

	pj0, pj0b, pj1, err := kern([][]float64{grid})
	if err != nil {
		return nil, Diagnostics{}, err
	}

	lnG := make([]float64, len(grid))
	for i, l := range grid {
		lnG[i] = math.Log(l)
	}
	spline := func(p [][]complex128) (*interp.CSpline, error) {
		if p == nil {
			return nil, nil
		}
		return interp.NewCSpline(lnG, p[0])
	}
	s0, err := spline(pj0)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	s0b, err := spline(pj0b)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	s1, err := spline(pj1)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	out := make([]complex128, len(off))
	for i, r := range off {
		var em0, em0b, em1 complex128
		for j, b := range filt.Base {
			x := math.Log(b / r)
			if s0 != nil {
				em0 += s0.Eval(x) * complex(filt.J0[j], 0)
			}
			if s0b != nil {
				em0b += s0b.Eval(x) * complex(filt.J0[j], 0)
			}
			if s1 != nil {
				em1 += s1.Eval(x) * complex(filt.J1[j], 0)
			}
		}
		out[i] = assemble(em0, em0b, em1, factAng[i], r, j1PerOff) / complex(r, 0)
	}
	return out, Diagnostics{KernelEvals: len(grid), Converged: true}, nil
}

func hankelQWE(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	nodes, weights := quadrature.GaussLegendre(cfg.NQuad)

	// All panel nodes for all offsets in one kernel call; panels span
	// the pi-spaced approximate Bessel zeros.
	lambd := make([][]float64, len(off))
	for i, r := range off {
		row := make([]float64, cfg.MaxInt*cfg.NQuad)
		for m := range cfg.MaxInt {
			a := float64(m) * math.Pi / r
			b := float64(m+1) * math.Pi / r
			for q, x := range nodes {
				row[m*cfg.NQuad+q] = (a+b)/2 + (b-a)/2*x
			}
		}
		lambd[i] = row
	}

	pj0, pj0b, pj1, err := kern(lambd)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	out := make([]complex128, len(off))
	diag := Diagnostics{KernelEvals: len(off) * cfg.MaxInt * cfg.NQuad, Converged: true}
	for i, r := range off {
		sums := make([]complex128, 0, cfg.MaxInt)
		var acc complex128
		converged := false
		for m := range cfg.MaxInt {
			a := float64(m) * math.Pi / r
			b := float64(m+1) * math.Pi / r
			var panel complex128
			for q := range cfg.NQuad {
				k := m*cfg.NQuad + q
				lam := lambd[i][k]
				var f complex128
				if pj0 != nil {
					f += pj0[i][k] * complex(math.J0(lam*r), 0)
				}
				var ang complex128
				if pj0b != nil {
					ang += pj0b[i][k] * complex(math.J0(lam*r), 0)
				}
				if pj1 != nil {
					v := pj1[i][k] * complex(math.J1(lam*r), 0)
					if j1PerOff {
						v /= complex(r, 0)
					}
					ang += v
				}
				f += complex(factAng[i], 0) * ang
				panel += f * complex(weights[q]*(b-a)/2, 0)
			}
			acc += panel
			sums = append(sums, acc)
			diag.Intervals++

			if m >= 2 {
				est, errEst := quadrature.Epsilon(sums)
				if errEst <= cfg.Rtol*cmplxMag(est)+cfg.Atol {
					out[i] = est
					converged = true
					break
				}
				out[i] = est
			}
		}
		if !converged {
			diag.Converged = false
		}
	}
	return out, diag, nil
}

func hankelQuad(kern HankelKernel, off, factAng []float64, j1PerOff bool, cfg HankelConfig) ([]complex128, Diagnostics, error) {
	ppd := cfg.PtsPerDec
	if ppd <= 0 {
		ppd = 40
	}
	grid := logGrid(cfg.LambdaMin, cfg.LambdaMax, ppd)

	pj0, pj0b, pj1, err := kern([][]float64{grid})
	if err != nil {
		return nil, Diagnostics{}, err
	}

	lnG := make([]float64, len(grid))
	for i, l := range grid {
		lnG[i] = math.Log(l)
	}
	var s0, s0b, s1 *interp.CSpline
	if pj0 != nil {
		if s0, err = interp.NewCSpline(lnG, pj0[0]); err != nil {
			return nil, Diagnostics{}, err
		}
	}
	if pj0b != nil {
		if s0b, err = interp.NewCSpline(lnG, pj0b[0]); err != nil {
			return nil, Diagnostics{}, err
		}
	}
	if pj1 != nil {
		if s1, err = interp.NewCSpline(lnG, pj1[0]); err != nil {
			return nil, Diagnostics{}, err
		}
	}

	out := make([]complex128, len(off))
	diag := Diagnostics{KernelEvals: len(grid), Converged: true}
	for i, r := range off {
		f := func(lam float64) complex128 {
			x := math.Log(lam)
			var v, ang complex128
			if s0 != nil {
				v += s0.Eval(x) * complex(math.J0(lam*r), 0)
			}
			if s0b != nil {
				ang += s0b.Eval(x) * complex(math.J0(lam*r), 0)
			}
			if s1 != nil {
				w := s1.Eval(x) * complex(math.J1(lam*r), 0)
				if j1PerOff {
					w /= complex(r, 0)
				}
				ang += w
			}
			return v + complex(factAng[i], 0)*ang
		}

		// One adaptive pass per decade keeps the subdivision budget
		// local to the oscillation scale.
		a := cfg.LambdaMin
		for a < cfg.LambdaMax {
			b := math.Min(a*10, cfg.LambdaMax)
			res, err := quadrature.Adaptive(f, a, b, cfg.Rtol, cfg.Atol, cfg.Limit)
			if err != nil {
				return nil, Diagnostics{}, err
			}
			out[i] += res.Value
			diag.Intervals += res.Subdivisions
			if !res.Converged {
				diag.Converged = false
			}
			a = b
		}
	}
	return out, diag, nil
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// logGrid returns a log10-equispaced grid covering [lo, hi] at ppd
// points per decade, endpoints included.
func logGrid(lo, hi float64, ppd int) []float64 {
	n := int(math.Ceil(math.Log10(hi/lo)*float64(ppd))) + 1
	if n < 2 {
		n = 2
	}
	step := math.Log10(hi/lo) / float64(n-1)
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = lo * math.Pow(10, float64(i)*step)
	}
	grid[n-1] = hi
	return grid
}

func cmplxMag(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
