package transform

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-em/em/filters"
	"github.com/cwbudde/algo-em/internal/interp"
	"github.com/cwbudde/algo-em/internal/quadrature"
	"github.com/cwbudde/algo-em/internal/specfun"
)

// FourierMethod selects the frequency-to-time engine.
type FourierMethod int

const (
	// FourierDLF uses digital sine/cosine filters, with the same
	// standard, lagged and splined variants as the Hankel DLF.
	FourierDLF FourierMethod = iota
	// FourierQWE integrates panels between the oscillation zeros of the
	// sine/cosine factor and accelerates with the epsilon algorithm,
	// working on a splined frequency response.
	FourierQWE
	// FourierFFTLog performs the sine/cosine transform spectrally on a
	// log-equispaced frequency grid.
	FourierFFTLog
	// FourierFFT pads a linearly sampled response to a power of two and
	// uses a plain inverse FFT.
	FourierFFT
)

// FourierConfig tunes the frequency-to-time engines. The zero value
// selects the standard 301-point sine/cosine filter DLF; PtsPerDec
// follows the Hankel convention (-1 lagged, positive splined).
type FourierConfig struct {
	Method    FourierMethod
	Filter    string
	PtsPerDec int

	Rtol, Atol    float64
	NQuad, MaxInt int

	// FFTLog margins in decades around the reciprocal time range.
	AddDec [2]float64

	// Linear frequency sampling of the plain FFT engine.
	DFreq float64
	NFreq int
}

func (c FourierConfig) withDefaults() FourierConfig {
	if c.Filter == "" {
		c.Filter = "fourier301"
	}
	if c.PtsPerDec <= 0 && c.Method != FourierDLF {
		c.PtsPerDec = 10
	}
	if c.Rtol == 0 {
		c.Rtol = 1e-8
	}
	if c.Atol == 0 {
		c.Atol = 1e-20
	}
	if c.NQuad == 0 {
		c.NQuad = 21
	}
	if c.MaxInt == 0 {
		c.MaxInt = 200
	}
	if c.AddDec == [2]float64{} {
		c.AddDec = [2]float64{-3, 2}
	}
	if c.DFreq == 0 {
		c.DFreq = 0.002
	}
	if c.NFreq == 0 {
		c.NFreq = 2048
	}
	return c
}

// RequiredFreqs returns the frequencies (Hz) at which the frequency
// response must be computed before Fourier can transform it to the given
// times. The grid depends on the engine, not on the source signal.
func RequiredFreqs(times []float64, cfg FourierConfig) ([]float64, error) {
	if err := checkTimes(times); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	tmin, tmax := minMax(times)

	switch cfg.Method {
	case FourierDLF:
		filt, err := filters.ByName(cfg.Filter)
		if err != nil {
			return nil, err
		}
		nb := len(filt.Base)
		switch {
		case cfg.PtsPerDec == 0:
			freqs := make([]float64, 0, len(times)*nb)
			for _, t := range times {
				for _, b := range filt.Base {
					freqs = append(freqs, b/(2*math.Pi*t))
				}
			}
			return freqs, nil
		case cfg.PtsPerDec < 0:
			nout := laggedCount(tmin, tmax, filt.Delta)
			nsuper := nb + nout - 1
			freqs := make([]float64, nsuper)
			for k := range freqs {
				freqs[k] = filt.Base[0] * math.Exp(float64(k)*filt.Delta) / (2 * math.Pi * tmax)
			}
			return freqs, nil
		default:
			wmin := filt.Base[0] / tmax
			wmax := filt.Base[nb-1] / tmin
			return scaleGrid(logGrid(wmin, wmax, cfg.PtsPerDec), 1/(2*math.Pi)), nil
		}
	case FourierQWE:
		// Splined response: the panel nodes are interpolated from a
		// coarse log grid spanning all integration panels.
		wmin := 1e-3 * math.Pi / tmax
		wmax := float64(cfg.MaxInt) * math.Pi / tmin
		return scaleGrid(logGrid(wmin, wmax, cfg.PtsPerDec), 1/(2*math.Pi)), nil
	case FourierFFTLog:
		wmin := math.Pow(10, cfg.AddDec[0]) / tmax
		wmax := math.Pow(10, cfg.AddDec[1]) / tmin
		n := int(math.Ceil(math.Log10(wmax/wmin)*float64(cfg.PtsPerDec))) + 1
		delta := math.Ln10 / float64(cfg.PtsPerDec)
		freqs := make([]float64, n)
		for i := range freqs {
			freqs[i] = wmin * math.Exp(float64(i)*delta) / (2 * math.Pi)
		}
		return freqs, nil
	case FourierFFT:
		freqs := make([]float64, cfg.NFreq)
		for i := range freqs {
			freqs[i] = float64(i+1) * cfg.DFreq
		}
		return freqs, nil
	default:
		return nil, fmt.Errorf("transform: unknown Fourier method %d", cfg.Method)
	}
}

// Fourier converts one receiver's frequency response, sampled at the
// grid from RequiredFreqs, into the time domain. signal selects the
// source waveform: 0 impulse, 1 step-on, -1 switch-off. The response
// must follow the e^{+iwt} convention of a causal system.
func Fourier(freqs []float64, fresp []complex128, times []float64, signal int, cfg FourierConfig) ([]float64, Diagnostics, error) {
	if len(freqs) != len(fresp) {
		return nil, Diagnostics{}, errors.New("transform: freqs and fresp must have equal length")
	}
	if err := checkTimes(times); err != nil {
		return nil, Diagnostics{}, err
	}
	if signal < -1 || signal > 1 {
		return nil, Diagnostics{}, fmt.Errorf("transform: signal must be -1, 0 or 1, got %d", signal)
	}
	cfg = cfg.withDefaults()

	switch cfg.Method {
	case FourierDLF:
		return fourierDLF(freqs, fresp, times, signal, cfg)
	case FourierQWE:
		return fourierQWE(freqs, fresp, times, signal, cfg)
	case FourierFFTLog:
		return fourierFFTLog(freqs, fresp, times, signal, cfg)
	case FourierFFT:
		return fourierFFT(freqs, fresp, times, signal, cfg)
	default:
		return nil, Diagnostics{}, fmt.Errorf("transform: unknown Fourier method %d", cfg.Method)
	}
}

// ftIntegrand returns the real integrand g such that the time-domain
// response is Int g(w) trig(w t) dw, and whether trig is the cosine.
//
// For a causal response the three waveforms reduce to
//
//	impulse:    -(2/pi) Im F(w)      against sin(wt)
//	step-on:     (2/pi) Re F(w) / w  against sin(wt)
//	switch-off: -(2/pi) Im F(w) / w  against cos(wt)
//
// The step-on integrand grows like 1/w towards zero frequency, which the
// log-domain engines cannot damp; they evaluate the switch-off response
// instead and subtract it from the DC level. Only the panel quadrature of
// fourierQWE integrates the step-on form directly.
func ftIntegrand(w float64, f complex128, signal int) (g float64, cosine bool) {
	switch signal {
	case 0:
		return -2 / math.Pi * imag(f), false
	case 1:
		return 2 / math.Pi * real(f) / w, false
	default:
		return -2 / math.Pi * imag(f) / w, true
	}
}

func fourierDLF(freqs []float64, fresp []complex128, times []float64, signal int, cfg FourierConfig) ([]float64, Diagnostics, error) {
	filt, err := filters.ByName(cfg.Filter)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	if filt.Sin == nil || filt.Cos == nil {
		return nil, Diagnostics{}, fmt.Errorf("transform: filter %q has no sine/cosine weights", filt.Name)
	}
	nb := len(filt.Base)

	// Impulse responses go through the sine filter; both step waveforms
	// through the cosine filter, the step-on as DC level minus switch-off.
	eff := signal
	if signal == 1 {
		eff = -1
	}
	weights := filt.Sin
	if eff == -1 {
		weights = filt.Cos
	}

	tmin, tmax := minMax(times)
	diag := Diagnostics{KernelEvals: len(freqs), Converged: true}

	switch {
	case cfg.PtsPerDec == 0:
		if len(freqs) != len(times)*nb {
			return nil, Diagnostics{}, errors.New("transform: response not sampled at the standard DLF grid")
		}
		out := make([]float64, len(times))
		for i, t := range times {
			var s float64
			for j := range nb {
				w := 2 * math.Pi * freqs[i*nb+j]
				g, _ := ftIntegrand(w, fresp[i*nb+j], eff)
				s += g * weights[j]
			}
			out[i] = s / t
			if signal == 1 {
				out[i] = real(fresp[i*nb]) - out[i]
			}
		}
		return out, diag, nil

	case cfg.PtsPerDec < 0:
		nout := laggedCount(tmin, tmax, filt.Delta)
		if len(freqs) != nb+nout-1 {
			return nil, Diagnostics{}, errors.New("transform: response not sampled at the lagged DLF grid")
		}
		lnT := make([]float64, nout)
		vals := make([]float64, nout)
		for j := range nout {
			t := tmax * math.Exp(-float64(j)*filt.Delta)
			i := nout - 1 - j
			lnT[i] = math.Log(t)
			var s float64
			for q := range nb {
				w := 2 * math.Pi * freqs[j+q]
				g, _ := ftIntegrand(w, fresp[j+q], eff)
				s += g * weights[q]
			}
			vals[i] = s / t
			if signal == 1 {
				vals[i] = real(fresp[j]) - vals[i]
			}
		}
		sp, err := interp.NewSpline(lnT, vals)
		if err != nil {
			return nil, Diagnostics{}, fmt.Errorf("transform: lagged interpolation: %w", err)
		}
		out := make([]float64, len(times))
		for i, t := range times {
			out[i] = sp.Eval(math.Log(t))
		}
		return out, diag, nil

	default:
		sp, err := newResponseSpline(freqs, fresp)
		if err != nil {
			return nil, Diagnostics{}, err
		}
		out := make([]float64, len(times))
		for i, t := range times {
			var s float64
			for j, b := range filt.Base {
				w := b / t
				g, _ := ftIntegrand(w, sp.Eval(math.Log(w)), eff)
				s += g * weights[j]
			}
			out[i] = s / t
			if signal == 1 {
				out[i] = real(sp.Eval(math.Log(filt.Base[0]/t))) - out[i]
			}
		}
		return out, diag, nil
	}
}

func fourierQWE(freqs []float64, fresp []complex128, times []float64, signal int, cfg FourierConfig) ([]float64, Diagnostics, error) {
	sp, err := newResponseSpline(freqs, fresp)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	nodes, glWeights := quadrature.GaussLegendre(cfg.NQuad)

	out := make([]float64, len(times))
	diag := Diagnostics{KernelEvals: len(freqs), Converged: true}
	for i, t := range times {
		sums := make([]complex128, 0, cfg.MaxInt)
		var acc complex128
		converged := false
		for m := range cfg.MaxInt {
			a := float64(m) * math.Pi / t
			b := float64(m+1) * math.Pi / t
			var panel float64
			for q, x := range nodes {
				w := (a+b)/2 + (b-a)/2*x
				g, cosine := ftIntegrand(w, sp.Eval(math.Log(w)), signal)
				trig := math.Sin(w * t)
				if cosine {
					trig = math.Cos(w * t)
				}
				panel += g * trig * glWeights[q] * (b - a) / 2
			}
			acc += complex(panel, 0)
			sums = append(sums, acc)
			diag.Intervals++

			if m >= 2 {
				est, errEst := quadrature.Epsilon(sums)
				out[i] = real(est)
				if errEst <= cfg.Rtol*cmplxMag(est)+cfg.Atol {
					converged = true
					break
				}
			}
		}
		if !converged {
			diag.Converged = false
		}
	}
	return out, diag, nil
}

// Contour shift of the spectral trig transfer, matching the bias of the
// filter tables. The integrand is premultiplied with w^logBias and the
// result rescaled with t^logBias, which cancels after the time division.
const logBias = 0.5

// fourierFFTLog computes the sine/cosine transform as a logarithmic
// convolution: with w = e^{-y} and t = e^{x},
//
//	t G(t) = Int g(e^{-y}) e^{x-y} trig(e^{x-y}) dy,
//
// which a spectral multiplication with the Mellin transform of the trig
// kernel evaluates on the whole log-equispaced grid at once. The output
// grid is reciprocal to the frequency grid; the requested times are
// interpolated from it.
func fourierFFTLog(freqs []float64, fresp []complex128, times []float64, signal int, cfg FourierConfig) ([]float64, Diagnostics, error) {
	n := len(freqs)
	if n < 8 {
		return nil, Diagnostics{}, errors.New("transform: fftlog needs at least 8 samples")
	}
	delta, err := logSpacing(freqs)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	eff := signal
	if signal == 1 {
		eff = -1
	}
	g := make([]complex128, n)
	var cosine bool
	for j, f := range freqs {
		w := 2 * math.Pi * f
		var gj float64
		gj, cosine = ftIntegrand(w, fresp[j], eff)
		g[j] = complex(gj*math.Pow(w, logBias), 0)
	}

	fft := fourier.NewCmplxFFT(n)
	ghat := fft.Coefficients(nil, g)

	// Multiply with the transfer of the trig kernel, tapered towards
	// the spectral edge, and undo the index shift of the output grid.
	spec := make([]complex128, n)
	kmax := math.Pi / delta
	for m := range n {
		mm := m
		if mm > n/2 {
			mm -= n
		}
		k := 2 * math.Pi * float64(mm) / (float64(n) * delta)
		var transfer complex128
		if cosine {
			transfer = specfun.CosMellin(complex(1-logBias, -k))
		} else {
			transfer = specfun.SinMellin(complex(1-logBias, -k))
		}
		transfer *= complex(spectralTaper(math.Abs(k), kmax), 0)

		conj := cmplx.Conj(ghat[m])
		phase := cmplx.Exp(complex(0, 2*math.Pi*float64(m)/float64(n)))
		spec[m] = transfer * conj * phase
	}
	conv := fft.Sequence(nil, spec)

	// Output times are the reciprocals of the frequency grid.
	lnT := make([]float64, n)
	vals := make([]float64, n)
	for i := range n {
		t := 1 / (2 * math.Pi * freqs[n-1-i])
		lnT[i] = math.Log(t)
		vals[i] = math.Pow(t, logBias) * real(conv[i]) / (float64(n) * t)
	}
	sp, err := interp.NewSpline(lnT, vals)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	dc := real(fresp[0])
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = sp.Eval(math.Log(t))
		if signal == 1 {
			out[i] = dc - out[i]
		}
	}
	return out, Diagnostics{KernelEvals: n, Converged: true}, nil
}

func fourierFFT(freqs []float64, fresp []complex128, times []float64, signal int, cfg FourierConfig) ([]float64, Diagnostics, error) {
	if err := checkLinearGrid(freqs, cfg.DFreq); err != nil {
		return nil, Diagnostics{}, err
	}

	nfft := nextPowerOfTwo(2 * (cfg.NFreq + 1))
	spec := make([]complex128, nfft)
	for k := 1; k <= cfg.NFreq; k++ {
		f := fresp[k-1]
		w := 2 * math.Pi * float64(k) * cfg.DFreq
		if signal != 0 {
			f /= complex(0, w)
		}
		spec[k] = f
	}

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("transform: fft plan: %w", err)
	}
	td := make([]complex128, nfft)
	if err := plan.Inverse(td, spec); err != nil {
		return nil, Diagnostics{}, fmt.Errorf("transform: inverse fft: %w", err)
	}

	dt := 1 / (float64(nfft) * cfg.DFreq)
	ts := make([]float64, nfft-1)
	vals := make([]float64, nfft-1)
	for j := 1; j < nfft; j++ {
		ts[j-1] = float64(j) * dt
		vals[j-1] = 2 * cfg.DFreq * float64(nfft) * real(td[j])
	}
	if _, tmax := minMax(times); tmax > ts[len(ts)-1] {
		return nil, Diagnostics{}, fmt.Errorf("transform: time %g beyond fft range %g; increase NFreq or decrease DFreq", tmax, ts[len(ts)-1])
	}
	sp, err := interp.NewSpline(ts, vals)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	out := make([]float64, len(times))
	dc := real(fresp[0])
	for i, t := range times {
		v := sp.Eval(t)
		switch signal {
		case 1:
			// The inverse transform of F/(iw) alone yields the step
			// response short of half the DC level.
			v += dc / 2
		case -1:
			// Switch-off is the DC level minus the step-on response.
			v = dc/2 - v
		}
		out[i] = v
	}
	return out, Diagnostics{KernelEvals: len(freqs), Converged: true}, nil
}

func newResponseSpline(freqs []float64, fresp []complex128) (*interp.CSpline, error) {
	lnW := make([]float64, len(freqs))
	for i, f := range freqs {
		if f <= 0 {
			return nil, errors.New("transform: frequencies must be positive")
		}
		lnW[i] = math.Log(2 * math.Pi * f)
	}
	sp, err := interp.NewCSpline(lnW, fresp)
	if err != nil {
		return nil, fmt.Errorf("transform: response interpolation: %w", err)
	}
	return sp, nil
}

func laggedCount(tmin, tmax, delta float64) int {
	n := int(math.Ceil(math.Log(tmax/tmin)/delta)) + 1
	if n < 3 {
		n = 3
	}
	return n
}

func checkTimes(times []float64) error {
	if len(times) == 0 {
		return errors.New("transform: no times")
	}
	for _, t := range times {
		if t <= 0 {
			return errors.New("transform: times must be positive")
		}
	}
	return nil
}

// logSpacing verifies log-equidistance and returns the log step.
func logSpacing(grid []float64) (float64, error) {
	delta := math.Log(grid[1] / grid[0])
	for i := 2; i < len(grid); i++ {
		if math.Abs(math.Log(grid[i]/grid[i-1])-delta) > 1e-8*delta {
			return 0, errors.New("transform: fftlog needs a log-equispaced frequency grid")
		}
	}
	return delta, nil
}

func checkLinearGrid(freqs []float64, dfreq float64) error {
	for i, f := range freqs {
		if math.Abs(f-float64(i+1)*dfreq) > 1e-8*dfreq {
			return errors.New("transform: fft needs a linear frequency grid at multiples of DFreq")
		}
	}
	return nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func scaleGrid(grid []float64, s float64) []float64 {
	for i := range grid {
		grid[i] *= s
	}
	return grid
}

// spectralTaper is the cosine roll-off also used for the filter tables.
func spectralTaper(k, kmax float64) float64 {
	const start = 0.8
	if k <= start*kmax {
		return 1
	}
	if k >= kmax {
		return 0
	}
	x := (k - start*kmax) / ((1 - start) * kmax)
	return 0.5 * (1 + math.Cos(math.Pi*x))
}
