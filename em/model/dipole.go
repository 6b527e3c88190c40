package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-em/em/kernel"
	"github.com/cwbudde/algo-em/em/transform"
)

// Opt selects an internal evaluation strategy. It never changes the
// result beyond floating-point rounding.
type Opt int

const (
	// OptNone evaluates frequencies sequentially with the configured
	// Hankel engine.
	OptNone Opt = iota
	// OptParallel fans the frequencies out over goroutines.
	OptParallel
	// OptSpline forces the splined DLF variant when the Hankel
	// configuration does not already pick one.
	OptSpline
)

// Loop selects the loop ordering over the frequency/offset grid. Like
// Opt it is semantically neutral.
type Loop int

const (
	// LoopNone transforms all offsets of one frequency in a single
	// engine call.
	LoopNone Loop = iota
	// LoopFreq is an alias for the natural per-frequency ordering.
	LoopFreq
	// LoopOff runs one engine call per offset.
	LoopOff
)

// Model describes a horizontally layered subsurface. Depth holds the top
// of each layer, Depth[0] = -Inf for the upper halfspace. Aniso is the
// vertical-over-horizontal resistivity ratio; nil slices for Aniso and
// the permittivities/permeabilities default to ones.
type Model struct {
	Depth []float64
	Res   []float64
	Aniso []float64

	EpermH, EpermV []float64
	MpermH, MpermV []float64
}

// Request describes one point-dipole computation.
//
// FreqTime holds frequencies (Hz) when Signal is nil, otherwise times
// (s) for the source signal *Signal: 0 impulse, 1 switch-on, -1
// switch-off. AB is the two-digit receiver/source component code. When
// XDirect is set and source and receiver share a layer, the direct field
// is evaluated analytically in the space domain instead of through the
// Hankel transform.
type Request struct {
	Src        [3]float64
	RecX, RecY []float64
	RecZ       float64

	Model

	FreqTime []float64
	Signal   *int

	AB      int
	XDirect bool

	HT transform.HankelConfig
	FT transform.FourierConfig

	Opt  Opt
	Loop Loop
}

// Result holds the computed responses, shaped [frequency][offset] or
// [time][offset].
type Result struct {
	Freqs []float64
	Times []float64

	// EM is the frequency-domain response (V/m per unit source moment).
	EM [][]complex128
	// TD is the time-domain response, set when a signal was requested.
	TD [][]float64

	Diagnostics transform.Diagnostics
}

// Dipole computes the layered-earth response of a unit point dipole.
func Dipole(req Request) (*Result, error) {
	s, err := checkStack(req.Model)
	if err != nil {
		return nil, err
	}
	if err := checkFreqTime(req.FreqTime); err != nil {
		return nil, err
	}
	abCalc, swap, sign, err := normalizeAB(req.AB)
	if err != nil {
		return nil, err
	}

	off, azimuth, err := surveyGeometry(req.Src, req.RecX, req.RecY)
	if err != nil {
		return nil, err
	}
	zsrc, zrec := req.Src[2], req.RecZ
	if swap {
		// Reciprocal evaluation: exchange the roles of source and
		// receiver. The azimuth turns by pi because it is now measured
		// from the former receiver towards the former source.
		zsrc, zrec = zrec, zsrc
		for i := range azimuth {
			azimuth[i] += math.Pi
		}
	}

	pl := pipeline{
		stack: s,
		zsrc:  zsrc, zrec: zrec,
		off: off, azimuth: azimuth,
		abCalc: abCalc, sign: sign,
		xdirect: req.XDirect,
		ht:      req.HT,
		opt:     req.Opt, loop: req.Loop,
	}
	if err := pl.prepare(); err != nil {
		return nil, err
	}

	if req.Signal == nil {
		em, diag, err := pl.fem(req.FreqTime)
		if err != nil {
			return nil, err
		}
		return &Result{Freqs: req.FreqTime, EM: em, Diagnostics: diag}, nil
	}
	td, diag, err := pl.tem(req.FreqTime, *req.Signal, req.FT)
	if err != nil {
		return nil, err
	}
	return &Result{Times: req.FreqTime, TD: td, Diagnostics: diag}, nil
}

// pipeline bundles the resolved inputs of one kernel+transform run.
type pipeline struct {
	stack
	zsrc, zrec   float64
	lsrc, lrec   int
	off, azimuth []float64
	factAng      []float64
	j1PerOff     bool
	abCalc       int
	sign         float64
	xdirect      bool
	ht           transform.HankelConfig
	opt          Opt
	loop         Loop
}

func (p *pipeline) prepare() error {
	p.lsrc = layerIndex(p.depth, p.zsrc)
	p.lrec = layerIndex(p.depth, p.zrec)

	fact, err := kernel.AngleFactor(p.azimuth, p.abCalc)
	if err != nil {
		return err
	}
	p.factAng = fact
	p.j1PerOff = kernel.J1PerOffset(p.abCalc)

	if p.xdirect && p.lsrc == p.lrec && !p.isotropicAt(p.lsrc) {
		return fmt.Errorf("%w: the analytical direct field needs an isotropic source layer", ErrModel)
	}
	if p.opt == OptSpline && p.ht.Method == transform.HankelDLF && p.ht.PtsPerDec <= 0 {
		p.ht.PtsPerDec = 40
	}
	return nil
}

// fem computes the frequency-domain response, [frequency][offset].
func (p *pipeline) fem(freqs []float64) ([][]complex128, transform.Diagnostics, error) {
	em := make([][]complex128, len(freqs))
	diags := make([]transform.Diagnostics, len(freqs))
	errs := make([]error, len(freqs))

	if p.opt == OptParallel {
		var wg sync.WaitGroup
		for i, f := range freqs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				em[i], diags[i], errs[i] = p.femFreq(f)
			}()
		}
		wg.Wait()
	} else {
		for i, f := range freqs {
			em[i], diags[i], errs[i] = p.femFreq(f)
		}
	}

	var diag transform.Diagnostics
	diag.Converged = true
	for i := range freqs {
		if errs[i] != nil {
			return nil, transform.Diagnostics{}, errs[i]
		}
		diag.KernelEvals += diags[i].KernelEvals
		diag.Intervals += diags[i].Intervals
		diag.Converged = diag.Converged && diags[i].Converged
	}
	return em, diag, nil
}

// femFreq runs kernel and Hankel transform for a single frequency.
func (p *pipeline) femFreq(freq float64) ([]complex128, transform.Diagnostics, error) {
	w := 2 * math.Pi * freq
	etaH, etaV, zetaH, zetaV := p.admittances(w)

	kp := kernel.Params{
		ZSrc: p.zsrc, ZRec: p.zrec,
		LSrc: p.lsrc, LRec: p.lrec,
		Depth: p.depth,
		EtaH:  etaH, EtaV: etaV,
		ZetaH: zetaH, ZetaV: zetaV,
		AB:      p.abCalc,
		XDirect: p.xdirect && p.lsrc == p.lrec,
	}
	kern := func(lambd [][]float64) (pj0, pj0b, pj1 [][]complex128, err error) {
		return kernel.Wavenumber(kp, lambd)
	}

	out := make([]complex128, len(p.off))
	var diag transform.Diagnostics
	diag.Converged = true
	if p.loop == LoopOff {
		for i := range p.off {
			one, d, err := transform.Hankel(kern, p.off[i:i+1], p.factAng[i:i+1], p.j1PerOff, p.ht)
			if err != nil {
				return nil, transform.Diagnostics{}, err
			}
			out[i] = one[0]
			diag.KernelEvals += d.KernelEvals
			diag.Intervals += d.Intervals
			diag.Converged = diag.Converged && d.Converged
		}
	} else {
		var err error
		out, diag, err = transform.Hankel(kern, p.off, p.factAng, p.j1PerOff, p.ht)
		if err != nil {
			return nil, transform.Diagnostics{}, err
		}
	}

	scale := complex(p.sign/(4*math.Pi), 0)
	for i := range out {
		out[i] *= scale
	}

	if kp.XDirect {
		direct, err := kernel.Fullspace(p.off, p.azimuth, p.zsrc, p.zrec,
			etaH[p.lsrc], zetaH[p.lsrc], p.abCalc)
		if err != nil {
			return nil, transform.Diagnostics{}, err
		}
		for i := range out {
			out[i] += complex(p.sign, 0) * direct[i]
		}
	}
	return out, diag, nil
}

// tem computes the time-domain response, [time][offset]. The frequency
// grid is dictated by the Fourier engine; only non-negative frequencies
// are evaluated, negative ones follow from Hermitian symmetry.
func (p *pipeline) tem(times []float64, signal int, ft transform.FourierConfig) ([][]float64, transform.Diagnostics, error) {
	freqs, err := transform.RequiredFreqs(times, ft)
	if err != nil {
		return nil, transform.Diagnostics{}, err
	}

	fresp, diag, err := p.fem(freqs)
	if err != nil {
		return nil, transform.Diagnostics{}, err
	}

	td := make([][]float64, len(times))
	for i := range td {
		td[i] = make([]float64, len(p.off))
	}
	col := make([]complex128, len(freqs))
	for j := range p.off {
		for i := range freqs {
			col[i] = fresp[i][j]
		}
		vals, d, err := transform.Fourier(freqs, col, times, signal, ft)
		if err != nil {
			return nil, transform.Diagnostics{}, err
		}
		diag.Intervals += d.Intervals
		diag.Converged = diag.Converged && d.Converged
		for i := range times {
			td[i][j] = vals[i]
		}
	}
	return td, diag, nil
}
