package model

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-em/em/transform"
	"github.com/cwbudde/algo-em/internal/quadrature"
)

// BipoleRequest describes finite-length source and receiver antennas.
// Src and Rec hold the wire endpoints as [x0, x1, y0, y1, z0, z1]. Each
// wire is discretized into SrcPts respectively RecPts point dipoles
// (midpoint for 1, Gauss-Legendre nodes otherwise). With Strength 0 the
// antennas are normalized to unit dipoles; otherwise the response scales
// with Strength times both wire lengths.
type BipoleRequest struct {
	Src, Rec   [6]float64
	Msrc, Mrec bool

	SrcPts, RecPts int
	Strength       float64

	Model

	FreqTime []float64
	Signal   *int

	XDirect bool

	HT transform.HankelConfig
	FT transform.FourierConfig

	Opt  Opt
	Loop Loop
}

// Bipole integrates point-dipole responses over both antennas. Each
// segment pair is decomposed into the x/y/z component dipoles and summed
// with the segment quadrature weights and direction cosines.
func Bipole(req BipoleRequest) (*Result, error) {
	srcPos, srcW, srcDir, srcLen, err := wireSegments(req.Src, req.SrcPts)
	if err != nil {
		return nil, fmt.Errorf("source antenna: %w", err)
	}
	recPos, recW, recDir, recLen, err := wireSegments(req.Rec, req.RecPts)
	if err != nil {
		return nil, fmt.Errorf("receiver antenna: %w", err)
	}

	scale := 1.0
	if req.Strength != 0 {
		scale = req.Strength * srcLen * recLen
	}

	var total *Result
	for si, sp := range srcPos {
		for ri, rp := range recPos {
			for sa := range 3 {
				if math.Abs(srcDir[sa]) < 1e-12 {
					continue
				}
				for ra := range 3 {
					if math.Abs(recDir[ra]) < 1e-12 {
						continue
					}
					ab := (ra+1+3*magShift(req.Mrec))*10 + sa + 1 + 3*magShift(req.Msrc)
					if ab == 36 || ab == 63 {
						// Identically zero combination.
						continue
					}
					sub, err := Dipole(Request{
						Src:      sp,
						RecX:     []float64{rp[0]},
						RecY:     []float64{rp[1]},
						RecZ:     rp[2],
						Model:    req.Model,
						FreqTime: req.FreqTime,
						Signal:   req.Signal,
						AB:       ab,
						XDirect:  req.XDirect,
						HT:       req.HT,
						FT:       req.FT,
						Opt:      req.Opt,
						Loop:     req.Loop,
					})
					if err != nil {
						return nil, err
					}
					weight := scale * srcW[si] * recW[ri] * srcDir[sa] * recDir[ra]
					total = accumulate(total, sub, weight)
				}
			}
		}
	}
	if total == nil {
		return nil, fmt.Errorf("%w: antennas excite no field component", ErrGeometry)
	}
	return total, nil
}

// wireSegments discretizes an antenna into weighted point dipoles. The
// weights average to one over the wire, so an unscaled bipole reduces to
// a unit dipole.
func wireSegments(end [6]float64, pts int) (pos [][3]float64, w []float64, dir [3]float64, length float64, err error) {
	dx := end[1] - end[0]
	dy := end[3] - end[2]
	dz := end[5] - end[4]
	length = math.Sqrt(dx*dx + dy*dy + dz*dz)
	if length == 0 {
		return nil, nil, dir, 0, fmt.Errorf("%w: zero-length antenna", ErrGeometry)
	}
	dir = [3]float64{dx / length, dy / length, dz / length}
	mid := [3]float64{(end[0] + end[1]) / 2, (end[2] + end[3]) / 2, (end[4] + end[5]) / 2}

	if pts <= 1 {
		return [][3]float64{mid}, []float64{1}, dir, length, nil
	}

	nodes, weights := quadrature.GaussLegendre(pts)
	pos = make([][3]float64, pts)
	w = make([]float64, pts)
	for i, x := range nodes {
		pos[i] = [3]float64{
			mid[0] + x/2*dx,
			mid[1] + x/2*dy,
			mid[2] + x/2*dz,
		}
		// Gauss-Legendre weights sum to 2 on [-1, 1].
		w[i] = weights[i] / 2
	}
	return pos, w, dir, length, nil
}

// accumulate adds weight*sub into total, allocating on first use.
func accumulate(total, sub *Result, weight float64) *Result {
	if total == nil {
		total = &Result{Freqs: sub.Freqs, Times: sub.Times}
		if sub.EM != nil {
			total.EM = make([][]complex128, len(sub.EM))
			for i := range total.EM {
				total.EM[i] = make([]complex128, len(sub.EM[i]))
			}
		}
		if sub.TD != nil {
			total.TD = make([][]float64, len(sub.TD))
			for i := range total.TD {
				total.TD[i] = make([]float64, len(sub.TD[i]))
			}
		}
		total.Diagnostics.Converged = true
	}
	for i := range sub.EM {
		for j := range sub.EM[i] {
			total.EM[i][j] += complex(weight, 0) * sub.EM[i][j]
		}
	}
	if sub.TD != nil {
		tmp := make([]float64, len(sub.TD[0]))
		for i := range sub.TD {
			vecmath.ScaleBlock(tmp, sub.TD[i], weight)
			vecmath.AddBlockInPlace(total.TD[i], tmp)
		}
	}
	total.Diagnostics.KernelEvals += sub.Diagnostics.KernelEvals
	total.Diagnostics.Intervals += sub.Diagnostics.Intervals
	total.Diagnostics.Converged = total.Diagnostics.Converged && sub.Diagnostics.Converged
	return total
}

// magShift is the component-code offset of a magnetic antenna.
func magShift(b bool) int {
	if b {
		return 1
	}
	return 0
}
