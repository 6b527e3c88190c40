package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidAB reports a source-receiver code the kernel cannot evaluate.
var ErrInvalidAB = errors.New("kernel: invalid source-receiver code")

// Params collects the model and geometry for one frequency.
//
// Depth holds the top of each layer; Depth[0] is -Inf for the upper
// halfspace and layer i spans Depth[i] to Depth[i+1]. EtaH, EtaV, ZetaH
// and ZetaV hold one complex admittivity per layer at the evaluation
// frequency. When XDirect is set and source and receiver share a layer,
// the direct field is omitted from the wavenumber-domain response; the
// caller adds it back analytically in the space domain.
type Params struct {
	ZSrc, ZRec float64
	LSrc, LRec int
	Depth      []float64

	EtaH, EtaV   []complex128
	ZetaH, ZetaV []complex128

	AB      int
	XDirect bool
}

func (p Params) validate() error {
	n := len(p.Depth)
	if n < 1 {
		return errors.New("kernel: at least one layer required")
	}
	if len(p.EtaH) != n || len(p.EtaV) != n || len(p.ZetaH) != n || len(p.ZetaV) != n {
		return fmt.Errorf("kernel: admittivity slices must have %d entries", n)
	}
	for i := 1; i < n; i++ {
		if i > 1 && p.Depth[i] <= p.Depth[i-1] {
			return errors.New("kernel: layer tops must be strictly increasing")
		}
	}
	if p.LSrc < 0 || p.LSrc >= n || p.LRec < 0 || p.LRec >= n {
		return errors.New("kernel: source or receiver layer out of range")
	}
	return nil
}

// abMapping resolves a source-receiver code into the code the kernel
// evaluates natively. Fully magnetic codes reduce to their electric
// counterpart under duality (eta and zeta swap roles). Codes with a
// magnetic source but electric receiver must be converted to their
// reciprocal combination by the caller first.
func abMapping(ab int) (native int, dual bool, err error) {
	rec, src := ab/10, ab%10
	if rec < 1 || rec > 6 || src < 1 || src > 6 {
		return 0, false, fmt.Errorf("%w: %d", ErrInvalidAB, ab)
	}
	if ab == 36 || ab == 63 {
		return 0, false, fmt.Errorf("%w: %d has no response", ErrInvalidAB, ab)
	}
	msrc, mrec := src > 3, rec > 3
	switch {
	case msrc && mrec:
		return ab - 33, true, nil
	case msrc:
		return 0, false, fmt.Errorf("%w: %d needs the reciprocal combination", ErrInvalidAB, ab)
	default:
		return ab, false, nil
	}
}

// J1PerOffset reports whether the PJ1 container of the given code is
// integrated with an additional 1/offset factor. This applies to the
// tensor combinations of two horizontal components, whose J1 term stems
// from the (1/r) d/dr part of the horizontal derivatives.
func J1PerOffset(ab int) bool {
	switch ab {
	case 11, 12, 21, 22, 41, 42, 51, 52, 14, 15, 24, 25, 44, 45, 54, 55:
		return true
	}
	return false
}

// AngleFactor returns the azimuthal weight applied to the PJ0b and PJ1
// containers for each receiver azimuth. The code must be one the kernel
// evaluates natively (see abMapping).
func AngleFactor(azimuth []float64, ab int) ([]float64, error) {
	native, _, err := abMapping(ab)
	if err != nil {
		return nil, err
	}
	fct := make([]float64, len(azimuth))
	for i, phi := range azimuth {
		switch native {
		case 33:
			fct[i] = 1
		case 11:
			fct[i] = math.Cos(2 * phi)
		case 22:
			fct[i] = -math.Cos(2 * phi)
		case 12, 21, 41, 52:
			fct[i] = math.Sin(2 * phi)
		case 51, 42:
			fct[i] = math.Cos(2 * phi)
		case 13, 31, 53:
			fct[i] = math.Cos(phi)
		case 23, 32, 61:
			fct[i] = math.Sin(phi)
		case 43:
			fct[i] = -math.Sin(phi)
		case 62:
			fct[i] = -math.Cos(phi)
		default:
			return nil, fmt.Errorf("%w: %d", ErrInvalidAB, ab)
		}
	}
	return fct, nil
}

// Gamma returns the vertical wavenumber per layer and horizontal
// wavenumber, gam = sqrt((ezH/ezV) lambda^2 + zeH ezH), on the branch
// with non-negative real part.
func Gamma(lambd []float64, ezH, ezV, zeH []complex128) [][]complex128 {
	gam := make([][]complex128, len(ezH))
	for l := range ezH {
		row := make([]complex128, len(lambd))
		ratio := ezH[l] / ezV[l]
		k2 := zeH[l] * ezH[l]
		for i, lm := range lambd {
			row[i] = cmplx.Sqrt(ratio*complex(lm*lm, 0) + k2)
		}
		gam[l] = row
	}
	return gam
}

// Reflections builds the recursive reflection coefficients of the stack.
// rp[l] looks downward from the bottom of layer l, rm[l] upward from its
// top; the outermost halfspaces reflect nothing.
func Reflections(depth []float64, ezH []complex128, gam [][]complex128) (rp, rm [][]complex128) {
	nlay := len(ezH)
	nlam := len(gam[0])
	rp = make([][]complex128, nlay)
	rm = make([][]complex128, nlay)
	for l := range nlay {
		rp[l] = make([]complex128, nlam)
		rm[l] = make([]complex128, nlam)
	}

	for l := nlay - 2; l >= 0; l-- {
		for i := range nlam {
			rloc := (ezH[l+1]*gam[l][i] - ezH[l]*gam[l+1][i]) /
				(ezH[l+1]*gam[l][i] + ezH[l]*gam[l+1][i])
			var t complex128
			if l+1 < nlay-1 {
				e := layerExp(gam[l+1][i], 2*(depth[l+2]-depth[l+1]))
				t = rp[l+1][i] * e
			}
			rp[l][i] = (rloc + t) / (1 + rloc*t)
		}
	}

	for l := 1; l < nlay; l++ {
		for i := range nlam {
			rloc := (ezH[l-1]*gam[l][i] - ezH[l]*gam[l-1][i]) /
				(ezH[l-1]*gam[l][i] + ezH[l]*gam[l-1][i])
			var t complex128
			if l-1 > 0 {
				e := layerExp(gam[l-1][i], 2*(depth[l]-depth[l-1]))
				t = rm[l-1][i] * e
			}
			rm[l][i] = (rloc + t) / (1 + rloc*t)
		}
	}
	return rp, rm
}

// layerExp is exp(-gam*d) with infinite thickness collapsing to zero.
func layerExp(gam complex128, d float64) complex128 {
	if math.IsInf(d, 1) {
		return 0
	}
	return cmplx.Exp(-gam * complex(d, 0))
}

// Fields returns the scattered up- and down-going wave amplitudes in the
// receiver layer. pu is referenced at the bottom of the receiver layer,
// pd at its top. A source derivative flips the sign of the upward
// emission.
func Fields(depth []float64, gam, rp, rm [][]complex128, lsrc, lrec int, zsrc float64, srcDeriv bool) (pu, pd []complex128) {
	nlay := len(gam)
	nlam := len(gam[0])
	pu = make([]complex128, nlam)
	pd = make([]complex128, nlam)

	su, sd := complex(1, 0), complex(1, 0)
	if srcDeriv {
		su = -1
	}

	zt, zb := layerBounds(depth, lsrc)
	ds := zb - zt

	for i := range nlam {
		g := gam[lsrc][i]
		ep := layerExp(g, zb-zsrc)
		em := layerExp(g, zsrc-zt)
		es := layerExp(g, ds)

		rps, rms := rp[lsrc][i], rm[lsrc][i]
		denom := 1 - rps*rms*es*es
		b := rps * (sd*ep + su*rms*es*em) / denom
		a := rms * (su*em + sd*rps*es*ep) / denom

		switch {
		case lrec == lsrc:
			pu[i] = b
			pd[i] = a
		case lrec < lsrc:
			// Transfer the total field across each interface above the
			// source layer; the mode scalars are continuous there.
			v := a + su*em + b*es
			for l := lsrc - 1; l > lrec; l-- {
				el := layerExp(gam[l][i], depth[l+1]-depth[l])
				u := v / (1 + rm[l][i]*el*el)
				v = u * el * (1 + rm[l][i])
			}
			_, rzb := layerBounds(depth, lrec)
			er := layerExp(gam[lrec][i], rzb-depth[lrec])
			u := v / (1 + rm[lrec][i]*er*er)
			pu[i] = u
			pd[i] = rm[lrec][i] * er * u
		default:
			v := b + sd*ep + a*es
			for l := lsrc + 1; l < lrec; l++ {
				el := layerExp(gam[l][i], depth[l+1]-depth[l])
				u := v / (1 + rp[l][i]*el*el)
				v = u * el * (1 + rp[l][i])
			}
			rzt, _ := layerBounds(depth, lrec)
			var er complex128
			if lrec < nlay-1 {
				er = layerExp(gam[lrec][i], depth[lrec+1]-rzt)
			}
			pd[i] = v / (1 + rp[lrec][i]*er*er)
			pu[i] = rp[lrec][i] * er * pd[i]
		}
	}
	return pu, pd
}

// layerBounds returns the top and bottom of layer l; the outer halfspaces
// extend to infinity.
func layerBounds(depth []float64, l int) (zt, zb float64) {
	zt = depth[l]
	if l < len(depth)-1 {
		zb = depth[l+1]
	} else {
		zb = math.Inf(1)
	}
	return zt, zb
}

// mode coupling flags and prefactors for one propagation mode of a
// native source-receiver code.
type modeSpec struct {
	srcDeriv, recDeriv bool
}

// Greenfct evaluates the TM- and TE-mode Green's functions of p.AB for
// every row of lambd. The mode-specific source and receiver coupling
// factors are included, so that the containers assembled by Wavenumber
// only add powers of lambda. A nil slice is returned for a mode the
// combination does not excite.
func Greenfct(p Params, lambd [][]float64) (gtm, gte [][]complex128, err error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	native, dual, err := abMapping(p.AB)
	if err != nil {
		return nil, nil, err
	}

	etaH, etaV, zetaH, zetaV := p.EtaH, p.EtaV, p.ZetaH, p.ZetaV
	if dual {
		etaH, etaV, zetaH, zetaV = zetaH, zetaV, etaH, etaV
	}

	needTM, needTE, tmSpec, teSpec := modeSpecs(native)

	if needTM {
		gtm = make([][]complex128, len(lambd))
	}
	if needTE {
		gte = make([][]complex128, len(lambd))
	}

	for row, lm := range lambd {
		if needTM {
			gam := Gamma(lm, etaH, etaV, zetaH)
			k := scatterRow(p, gam, etaH, tmSpec)
			gtm[row] = applyPrefactor(native, true, k, gam, etaH, etaV, zetaH, p.LSrc, p.LRec)
		}
		if needTE {
			gam := Gamma(lm, zetaH, zetaV, etaH)
			k := scatterRow(p, gam, zetaH, teSpec)
			gte[row] = applyPrefactor(native, false, k, gam, etaH, etaV, zetaH, p.LSrc, p.LRec)
		}
	}
	return gtm, gte, nil
}

func modeSpecs(native int) (needTM, needTE bool, tm, te modeSpec) {
	switch native {
	case 11, 12, 21, 22:
		return true, true, modeSpec{true, true}, modeSpec{false, false}
	case 33:
		return true, false, modeSpec{false, false}, modeSpec{}
	case 13, 23:
		return true, false, modeSpec{false, true}, modeSpec{}
	case 31, 32:
		return true, false, modeSpec{true, false}, modeSpec{}
	case 43, 53:
		return true, false, modeSpec{false, false}, modeSpec{}
	case 61, 62:
		return false, true, modeSpec{}, modeSpec{false, false}
	case 41, 42, 51, 52:
		return true, true, modeSpec{true, false}, modeSpec{false, true}
	}
	return false, false, modeSpec{}, modeSpec{}
}

// scatterRow propagates one mode through the stack for a single lambda
// row and adds the wavenumber-domain direct field where requested.
func scatterRow(p Params, gam [][]complex128, ezH []complex128, spec modeSpec) []complex128 {
	nlam := len(gam[0])
	k := make([]complex128, nlam)

	su, sd := complex(1, 0), complex(1, 0)
	if spec.srcDeriv {
		su = -1
	}
	ru, rd := complex(1, 0), complex(1, 0)
	if spec.recDeriv {
		rd = -1
	}

	scattering := len(p.Depth) > 1
	if scattering {
		rp, rm := Reflections(p.Depth, ezH, gam)
		pu, pd := Fields(p.Depth, gam, rp, rm, p.LSrc, p.LRec, p.ZSrc, spec.srcDeriv)

		zt, zb := layerBounds(p.Depth, p.LRec)
		for i := range nlam {
			g := gam[p.LRec][i]
			if !math.IsInf(zb, 1) {
				k[i] += ru * pu[i] * layerExp(g, zb-p.ZRec)
			}
			if !math.IsInf(zt, -1) {
				k[i] += rd * pd[i] * layerExp(g, p.ZRec-zt)
			}
		}
	}

	if p.LSrc == p.LRec && !p.XDirect {
		sign := sd * rd
		if p.ZRec < p.ZSrc {
			sign = su * ru
		}
		dz := math.Abs(p.ZRec - p.ZSrc)
		for i := range nlam {
			k[i] += sign * layerExp(gam[p.LSrc][i], dz)
		}
	}
	return k
}

// applyPrefactor multiplies the propagated mode amplitudes with the
// source and receiver conversion factors of the native code.
func applyPrefactor(native int, tm bool, k []complex128, gam [][]complex128, etaH, etaV, zetaH []complex128, lsrc, lrec int) []complex128 {
	gs, gr := gam[lsrc], gam[lrec]
	for i := range k {
		var f complex128
		switch native {
		case 11, 12, 21, 22:
			if tm {
				f = gr[i] / etaH[lrec]
			} else {
				f = -zetaH[lsrc] / gs[i]
			}
		case 33:
			f = etaH[lsrc] / (etaV[lrec] * etaV[lsrc] * gs[i])
		case 13, 23:
			f = gr[i] * etaH[lsrc] / (gs[i] * etaH[lrec] * etaV[lsrc])
		case 31, 32:
			f = 1 / etaV[lrec]
		case 43, 53:
			f = etaH[lsrc] / (gs[i] * etaV[lsrc])
		case 61, 62:
			f = zetaH[lsrc] / (gs[i] * zetaH[lrec])
		case 41, 42, 51, 52:
			if tm {
				f = 1
			} else {
				f = gr[i] * zetaH[lsrc] / (gs[i] * zetaH[lrec])
			}
		}
		k[i] *= f
	}
	return k
}

// Wavenumber assembles the Hankel integrand containers for p.AB. Each of
// pj0, pj0b and pj1 is either nil or shaped like lambd. The containers
// include all powers of lambda, so that the Hankel transform integrates
// them against J0 respectively J1 with measure d(lambda); pj0b and pj1
// are additionally weighted by AngleFactor, and pj1 by 1/offset when
// J1PerOffset reports so.
func Wavenumber(p Params, lambd [][]float64) (pj0, pj0b, pj1 [][]complex128, err error) {
	native, _, err := abMapping(p.AB)
	if err != nil {
		return nil, nil, nil, err
	}
	gtm, gte, err := Greenfct(p, lambd)
	if err != nil {
		return nil, nil, nil, err
	}

	alloc := func() [][]complex128 {
		out := make([][]complex128, len(lambd))
		for r := range lambd {
			out[r] = make([]complex128, len(lambd[r]))
		}
		return out
	}

	switch native {
	case 11, 12, 21, 22, 41, 42, 51, 52:
		// Tensor of two horizontal components: sum and difference of the
		// two modes feed the angle-independent and angle-dependent parts.
		if native == 11 || native == 22 || native == 51 || native == 42 {
			pj0 = alloc()
		}
		pj0b = alloc()
		pj1 = alloc()
		for r, lm := range lambd {
			for i, l := range lm {
				lc := complex(l, 0)
				sum := gtm[r][i] + gte[r][i]
				diff := gtm[r][i] - gte[r][i]
				switch native {
				case 11, 22:
					pj0[r][i] = lc / 2 * sum
					pj0b[r][i] = lc / 2 * diff
					pj1[r][i] = -diff
				case 12, 21:
					pj0b[r][i] = lc / 2 * diff
					pj1[r][i] = -diff
				case 41:
					pj0b[r][i] = -lc / 2 * sum
					pj1[r][i] = sum
				case 51:
					pj0[r][i] = -lc / 2 * diff
					pj0b[r][i] = -lc / 2 * sum
					pj1[r][i] = sum
				case 42:
					pj0[r][i] = lc / 2 * diff
					pj0b[r][i] = lc / 2 * sum
					pj1[r][i] = -sum
				case 52:
					pj0b[r][i] = lc / 2 * sum
					pj1[r][i] = -sum
				}
			}
		}
	case 33:
		pj0 = alloc()
		for r, lm := range lambd {
			for i, l := range lm {
				pj0[r][i] = complex(l*l*l, 0) * gtm[r][i]
			}
		}
	case 13, 23:
		pj1 = alloc()
		for r, lm := range lambd {
			for i, l := range lm {
				pj1[r][i] = -complex(l*l, 0) * gtm[r][i]
			}
		}
	case 31, 32, 43, 53:
		pj1 = alloc()
		for r, lm := range lambd {
			for i, l := range lm {
				pj1[r][i] = complex(l*l, 0) * gtm[r][i]
			}
		}
	case 61, 62:
		pj1 = alloc()
		for r, lm := range lambd {
			for i, l := range lm {
				pj1[r][i] = complex(l*l, 0) * gte[r][i]
			}
		}
	}
	return pj0, pj0b, pj1, nil
}
