package model

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-em/em/kernel"
)

// Solution selects a closed-form reference solution.
type Solution int

const (
	// SolutionFullspace is the full-wavefield homogeneous fullspace,
	// frequency domain only.
	SolutionFullspace Solution = iota
	// SolutionHalfspace is the diffusive halfspace with source and
	// receiver on the surface.
	SolutionHalfspace
	// SolutionDirect is the diffusive direct field, i.e. the fullspace
	// response without displacement currents; the only solution with a
	// transient closed form for buried dipoles.
	SolutionDirect
)

// AnalyticalRequest describes a closed-form computation. The medium is a
// homogeneous isotropic fullspace or halfspace of resistivity Res.
type AnalyticalRequest struct {
	Src        [3]float64
	RecX, RecY []float64
	RecZ       float64

	Res float64

	FreqTime []float64
	Signal   *int

	Solution Solution
	AB       int
}

// Analytical computes a closed-form reference response, bypassing the
// kernel and transform pipeline. It shares the error conventions of
// Dipole; combinations without a closed form return
// kernel.ErrNotAnalytical.
func Analytical(req AnalyticalRequest) (*Result, error) {
	if req.Res <= 0 {
		return nil, fmt.Errorf("%w: resistivity must be positive", ErrModel)
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
		zsrc, zrec = zrec, zsrc
		for i := range azimuth {
			azimuth[i] += math.Pi
		}
	}

	switch req.Solution {
	case SolutionFullspace:
		if req.Signal != nil {
			return nil, fmt.Errorf("%w: the full wavefield has no transient closed form, use SolutionDirect", kernel.ErrNotAnalytical)
		}
		return analyticalFreq(req.FreqTime, off, azimuth, sign, func(w float64) (complex128, complex128) {
			return complex(1/req.Res, w*eps0), complex(0, w*mu0)
		}, zsrc, zrec, abCalc)

	case SolutionDirect:
		if req.Signal == nil {
			// Diffusive limit: displacement currents dropped.
			return analyticalFreq(req.FreqTime, off, azimuth, sign, func(w float64) (complex128, complex128) {
				return complex(1/req.Res, 0), complex(0, w*mu0)
			}, zsrc, zrec, abCalc)
		}
		td, err := kernel.FullspaceTime(off, azimuth, req.FreqTime, zsrc, zrec, req.Res, *req.Signal, abCalc)
		if err != nil {
			return nil, err
		}
		scaleRows(td, sign)
		return &Result{Times: req.FreqTime, TD: td}, nil

	case SolutionHalfspace:
		if zsrc != 0 || zrec != 0 {
			return nil, fmt.Errorf("%w: the halfspace surface solution needs source and receiver at z=0", ErrGeometry)
		}
		if req.Signal == nil {
			out := make([][]complex128, len(req.FreqTime))
			for i, f := range req.FreqTime {
				w := 2 * math.Pi * f
				row, err := kernel.Halfspace(off, azimuth, complex(1/req.Res, 0), complex(0, w*mu0), abCalc)
				if err != nil {
					return nil, err
				}
				out[i] = row
			}
			return &Result{Freqs: req.FreqTime, EM: out}, nil
		}
		td, err := kernel.HalfspaceTime(off, azimuth, req.FreqTime, req.Res, *req.Signal, abCalc)
		if err != nil {
			return nil, err
		}
		return &Result{Times: req.FreqTime, TD: td}, nil

	default:
		return nil, fmt.Errorf("model: unknown solution %d", req.Solution)
	}
}

func analyticalFreq(freqs, off, azimuth []float64, sign float64, medium func(w float64) (complex128, complex128), zsrc, zrec float64, ab int) (*Result, error) {
	out := make([][]complex128, len(freqs))
	for i, f := range freqs {
		eta, zeta := medium(2 * math.Pi * f)
		row, err := kernel.Fullspace(off, azimuth, zsrc, zrec, eta, zeta, ab)
		if err != nil {
			return nil, err
		}
		if sign != 1 {
			for j := range row {
				row[j] *= complex(sign, 0)
			}
		}
		out[i] = row
	}
	return &Result{Freqs: freqs, EM: out}, nil
}

func scaleRows(rows [][]float64, s float64) {
	if s == 1 {
		return
	}
	for i := range rows {
		for j := range rows[i] {
			rows[i][j] *= s
		}
	}
}
