package model

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

const (
	mu0  = 4e-7 * math.Pi
	eps0 = 8.854187817e-12
)

// minOffset guards the Hankel transform against the r -> 0 singularity.
const minOffset = 1e-3

var (
	// ErrModel reports an invalid layer stack.
	ErrModel = errors.New("model: invalid layer stack")
	// ErrGeometry reports an invalid survey geometry.
	ErrGeometry = errors.New("model: invalid survey geometry")
)

// stack is a validated layer model with all optional parameters filled.
type stack struct {
	depth          []float64
	res, aniso     []float64
	epermH, epermV []float64
	mpermH, mpermV []float64
}

// checkStack validates the layer description and fills unset anisotropy
// and permittivity/permeability slices with ones.
func checkStack(m Model) (stack, error) {
	n := len(m.Res)
	if n == 0 {
		return stack{}, fmt.Errorf("%w: no layers", ErrModel)
	}
	if len(m.Depth) != n {
		return stack{}, fmt.Errorf("%w: need one layer top per layer, got %d tops for %d layers", ErrModel, len(m.Depth), n)
	}
	if !math.IsInf(m.Depth[0], -1) {
		return stack{}, fmt.Errorf("%w: first layer top must be -Inf", ErrModel)
	}
	for i := 2; i < n; i++ {
		if m.Depth[i] <= m.Depth[i-1] {
			return stack{}, fmt.Errorf("%w: layer tops must be strictly increasing", ErrModel)
		}
	}
	for _, r := range m.Res {
		if r <= 0 {
			return stack{}, fmt.Errorf("%w: resistivities must be positive", ErrModel)
		}
	}

	filled := func(v []float64, name string) ([]float64, error) {
		if v == nil {
			out := make([]float64, n)
			for i := range out {
				out[i] = 1
			}
			return out, nil
		}
		if len(v) != n {
			return nil, fmt.Errorf("%w: %s needs %d entries, got %d", ErrModel, name, n, len(v))
		}
		for _, x := range v {
			if x <= 0 {
				return nil, fmt.Errorf("%w: %s must be positive", ErrModel, name)
			}
		}
		return v, nil
	}

	s := stack{depth: m.Depth, res: m.Res}
	var err error
	if s.aniso, err = filled(m.Aniso, "Aniso"); err != nil {
		return stack{}, err
	}
	if s.epermH, err = filled(m.EpermH, "EpermH"); err != nil {
		return stack{}, err
	}
	if s.epermV, err = filled(m.EpermV, "EpermV"); err != nil {
		return stack{}, err
	}
	if s.mpermH, err = filled(m.MpermH, "MpermH"); err != nil {
		return stack{}, err
	}
	if s.mpermV, err = filled(m.MpermV, "MpermV"); err != nil {
		return stack{}, err
	}
	return s, nil
}

// layerIndex returns the layer containing depth z; a point exactly on an
// interface belongs to the layer below it.
func layerIndex(depth []float64, z float64) int {
	l := 0
	for i := 1; i < len(depth); i++ {
		if z >= depth[i] {
			l = i
		}
	}
	return l
}

// isotropicAt reports whether the layer has no horizontal/vertical
// parameter split, which the analytical direct field requires.
func (s stack) isotropicAt(l int) bool {
	return s.aniso[l] == 1 && s.epermH[l] == s.epermV[l] && s.mpermH[l] == s.mpermV[l]
}

// admittances returns the per-layer complex admittivities and
// impedivities at angular frequency w.
func (s stack) admittances(w float64) (etaH, etaV, zetaH, zetaV []complex128) {
	n := len(s.res)
	etaH = make([]complex128, n)
	etaV = make([]complex128, n)
	zetaH = make([]complex128, n)
	zetaV = make([]complex128, n)
	for l := range n {
		etaH[l] = complex(1/s.res[l], w*s.epermH[l]*eps0)
		etaV[l] = complex(1/(s.res[l]*s.aniso[l]*s.aniso[l]), w*s.epermV[l]*eps0)
		zetaH[l] = complex(0, w*s.mpermH[l]*mu0)
		zetaV[l] = complex(0, w*s.mpermV[l]*mu0)
	}
	return etaH, etaV, zetaH, zetaV
}

// surveyGeometry derives horizontal offsets and azimuths from the source
// position and the receiver coordinate vectors.
func surveyGeometry(src [3]float64, recX, recY []float64) (off, azimuth []float64, err error) {
	n := len(recX)
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: no receivers", ErrGeometry)
	}
	if len(recY) != n {
		return nil, nil, fmt.Errorf("%w: RecX and RecY must have equal length", ErrGeometry)
	}

	dx := make([]float64, n)
	dy := make([]float64, n)
	for i := range n {
		dx[i] = recX[i] - src[0]
		dy[i] = recY[i] - src[1]
	}
	off = make([]float64, n)
	vecmath.Magnitude(off, dx, dy)

	azimuth = make([]float64, n)
	for i := range n {
		if off[i] < minOffset {
			return nil, nil, fmt.Errorf("%w: offset %g below the %g m minimum", ErrGeometry, off[i], minOffset)
		}
		azimuth[i] = math.Atan2(dy[i], dx[i])
	}
	return off, azimuth, nil
}

// normalizeAB resolves the requested source-receiver code into the one
// the kernel evaluates. A magnetic source with an electric receiver has
// no native kernel path; it is computed from the reciprocal combination
// with source and receiver exchanged and the sign flipped.
func normalizeAB(ab int) (abCalc int, swap bool, sign float64, err error) {
	rec, src := ab/10, ab%10
	if rec < 1 || rec > 6 || src < 1 || src > 6 {
		return 0, false, 0, fmt.Errorf("model: invalid source-receiver code %d", ab)
	}
	if ab == 36 || ab == 63 {
		return 0, false, 0, fmt.Errorf("model: code %d has no response", ab)
	}
	if src > 3 && rec <= 3 {
		return src*10 + rec, true, -1, nil
	}
	return ab, false, 1, nil
}

func checkFreqTime(freqtime []float64) error {
	if len(freqtime) == 0 {
		return errors.New("model: FreqTime must not be empty")
	}
	for _, v := range freqtime {
		if v <= 0 {
			return errors.New("model: FreqTime entries must be positive")
		}
	}
	return nil
}
