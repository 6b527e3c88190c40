// Package filters provides digital linear filter tables for fast Hankel and
// Fourier transforms on logarithmic grids.
//
// A filter approximates an oscillatory integral by a weighted sum over
// log-spaced abscissae,
//
//	int_0^inf F(l) J_nu(l*r) dl  ~  (1/r) * sum_n F(b_n/r) * h_n,
//
// and likewise for sine and cosine kernels. The tables are synthesized at
// first use from the Mellin transform of the kernel sampled on a vertical
// line inside its strip of analyticity, band-limited with a cosine taper
// and inverted with a single FFT. Returned filters are immutable and safe
// for concurrent use.
package filters

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-em/internal/specfun"
)

// ErrUnknownFilter is returned by ByName for an unrecognized filter name.
var ErrUnknownFilter = errors.New("filters: unknown filter name")

// Filter is an immutable digital linear filter table. Base holds the
// log-spaced abscissae b_n, Delta the log spacing between them. Hankel
// filters carry J0 and J1 weights, Fourier filters Sin and Cos weights;
// the unused pair is nil.
type Filter struct {
	Name   string
	Base   []float64
	Delta  float64
	Factor float64

	J0, J1   []float64
	Sin, Cos []float64
}

// Length of the spectrum used during synthesis. Must be a power of two for
// the FFT plan; large enough that periodic aliasing of the weight sequence
// is negligible for the table lengths used here.
const designSize = 4096

// Taper onset as a fraction of the Nyquist wavenumber pi/Delta.
const taperStart = 0.8

// Contour shift for the sine/cosine tables. The line s = 1 - ik runs along
// the edge of the Mellin strip of both trigonometric kernels, where the
// inverted weight sequence decays too slowly to damp responses that grow
// towards zero frequency. Sampling at s = 1/2 - ik keeps the contour
// interior; the compensating abscissa power is folded into the weights.
const fourierBias = 0.5

var (
	hankel201Once sync.Once
	hankel201F    *Filter
	hankel201Err  error

	hankel101Once sync.Once
	hankel101F    *Filter
	hankel101Err  error

	fourier301Once sync.Once
	fourier301F    *Filter
	fourier301Err  error
)

// Hankel201 returns the default 201-point Hankel filter (20 points per
// decade).
func Hankel201() (*Filter, error) {
	hankel201Once.Do(func() {
		hankel201F, hankel201Err = designHankel("hankel201", 201, math.Ln10/20)
	})
	return hankel201F, hankel201Err
}

// Hankel101 returns a shorter 101-point Hankel filter (10 points per
// decade), faster but less accurate than Hankel201.
func Hankel101() (*Filter, error) {
	hankel101Once.Do(func() {
		hankel101F, hankel101Err = designHankel("hankel101", 101, math.Ln10/10)
	})
	return hankel101F, hankel101Err
}

// Fourier301 returns the default 301-point sine/cosine filter (20 points
// per decade). The longer base absorbs the slow decay of step-like
// integrands towards zero frequency.
func Fourier301() (*Filter, error) {
	fourier301Once.Do(func() {
		fourier301F, fourier301Err = designFourier("fourier301", 301, math.Ln10/20)
	})
	return fourier301F, fourier301Err
}

// ByName returns the named filter table. Recognized names are "hankel201",
// "hankel101" and "fourier301".
func ByName(name string) (*Filter, error) {
	switch name {
	case "hankel201":
		return Hankel201()
	case "hankel101":
		return Hankel101()
	case "fourier301":
		return Fourier301()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
}

func designHankel(name string, n int, delta float64) (*Filter, error) {
	j0, err := designWeights(n, delta, func(k float64) complex128 {
		return specfun.BesselMellin(0, complex(1, -k))
	})
	if err != nil {
		return nil, err
	}

	j1, err := designWeights(n, delta, func(k float64) complex128 {
		return specfun.BesselMellin(1, complex(1, -k))
	})
	if err != nil {
		return nil, err
	}

	f := &Filter{
		Name:   name,
		Base:   baseAbscissae(n, delta),
		Delta:  delta,
		Factor: math.Exp(delta),
		J0:     j0,
		J1:     j1,
	}

	return f, nil
}

func designFourier(name string, n int, delta float64) (*Filter, error) {
	sin, err := designWeights(n, delta, func(k float64) complex128 {
		return specfun.SinMellin(complex(1-fourierBias, -k))
	})
	if err != nil {
		return nil, err
	}

	cos, err := designWeights(n, delta, func(k float64) complex128 {
		return specfun.CosMellin(complex(1-fourierBias, -k))
	})
	if err != nil {
		return nil, err
	}

	base := baseAbscissae(n, delta)
	for i, b := range base {
		s := math.Pow(b, fourierBias)
		sin[i] *= s
		cos[i] *= s
	}

	f := &Filter{
		Name:   name,
		Base:   base,
		Delta:  delta,
		Factor: math.Exp(delta),
		Sin:    sin,
		Cos:    cos,
	}

	return f, nil
}

// baseAbscissae returns b_n = exp(n*delta) for n centred on zero.
func baseAbscissae(n int, delta float64) []float64 {
	base := make([]float64, n)
	half := (n - 1) / 2
	for i := range base {
		base[i] = math.Exp(float64(i-half) * delta)
	}
	return base
}

// designWeights samples the kernel transfer function on a uniform
// wavenumber grid, applies the band-limiting taper and recovers the weight
// sequence by an inverse FFT. transfer must satisfy the Hermitian symmetry
// transfer(-k) = conj(transfer(k)) so the weights come out real.
func designWeights(n int, delta float64, transfer func(k float64) complex128) ([]float64, error) {
	plan, err := algofft.NewPlan64(designSize)
	if err != nil {
		return nil, fmt.Errorf("filters: design plan: %w", err)
	}

	dk := 2 * math.Pi / (float64(designSize) * delta)
	kmax := math.Pi / delta

	spec := make([]complex128, designSize)
	for m := range designSize {
		var k float64
		if m <= designSize/2 {
			k = float64(m) * dk
		} else {
			k = float64(m-designSize) * dk
		}
		spec[m] = transfer(k) * complex(taper(math.Abs(k), kmax), 0)
	}

	seq := make([]complex128, designSize)
	if err := plan.Inverse(seq, spec); err != nil {
		return nil, fmt.Errorf("filters: design inverse fft: %w", err)
	}

	weights := make([]float64, n)
	half := (n - 1) / 2
	for i := range weights {
		idx := ((i - half) + designSize) % designSize
		weights[i] = real(seq[idx])
	}

	return weights, nil
}

// taper is a cosine rolloff from taperStart*kmax to kmax.
func taper(k, kmax float64) float64 {
	k0 := taperStart * kmax
	switch {
	case k <= k0:
		return 1
	case k >= kmax:
		return 0
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(k-k0)/(kmax-k0)))
	}
}
