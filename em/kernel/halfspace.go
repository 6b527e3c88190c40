package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

const mu0 = 4e-7 * math.Pi

// Halfspace returns the frequency-domain field at the surface of a
// homogeneous conductive halfspace, source and receiver both placed at
// the interface. Only the horizontal electric combinations have this
// closed form.
func Halfspace(off, azimuth []float64, eta, zeta complex128, ab int) ([]complex128, error) {
	if ab != 11 && ab != 12 && ab != 21 && ab != 22 {
		return nil, fmt.Errorf("%w: halfspace surface solution needs ab in {11,12,21,22}, got %d", ErrNotAnalytical, ab)
	}
	if len(off) != len(azimuth) {
		return nil, errors.New("kernel: off and azimuth must have equal length")
	}

	gamma := cmplx.Sqrt(eta * zeta)
	out := make([]complex128, len(off))
	for i, r := range off {
		if r <= 0 {
			return nil, errors.New("kernel: offsets must be positive")
		}
		t, diag := surfaceTensor(azimuth[i], ab)
		e := complex(3*t, 0)
		if diag {
			e += -2 + (1+gamma*complex(r, 0))*cmplx.Exp(-gamma*complex(r, 0))
		}
		out[i] = e / (2 * math.Pi * eta * complex(r*r*r, 0))
	}
	return out, nil
}

// HalfspaceTime returns the transient field at the surface of a
// homogeneous halfspace of resistivity res, one row per time. signal
// selects the source waveform: 0 impulse, 1 step-on, -1 switch-off.
func HalfspaceTime(off, azimuth, times []float64, res float64, signal, ab int) ([][]float64, error) {
	if ab != 11 && ab != 12 && ab != 21 && ab != 22 {
		return nil, fmt.Errorf("%w: halfspace surface solution needs ab in {11,12,21,22}, got %d", ErrNotAnalytical, ab)
	}
	if err := checkSignal(signal); err != nil {
		return nil, err
	}

	out := make([][]float64, len(times))
	for it, t := range times {
		if t <= 0 {
			return nil, errors.New("kernel: times must be positive")
		}
		row := make([]float64, len(off))
		for i, r := range off {
			tens, diag := surfaceTensor(azimuth[i], ab)
			u := r * math.Sqrt(mu0/res) / (2 * math.Sqrt(t))
			eu := math.Exp(-u * u)

			var e float64
			switch signal {
			case 1:
				e = 3*tens - 2*boolTo1(diag)
				if diag {
					e += math.Erfc(u) + 2*u/math.SqrtPi*eu
				}
			case 0:
				if diag {
					e = 2 * u * u * u / (math.SqrtPi * t) * eu
				}
			case -1:
				if diag {
					e = math.Erf(u) - 2*u/math.SqrtPi*eu
				}
			}
			row[i] = res * e / (2 * math.Pi * r * r * r)
		}
		out[it] = row
	}
	return out, nil
}

// surfaceTensor returns x_a x_b / r^2 for the horizontal combination and
// whether it is a diagonal one.
func surfaceTensor(azimuth float64, ab int) (t float64, diag bool) {
	switch ab {
	case 11:
		c := math.Cos(azimuth)
		return c * c, true
	case 22:
		s := math.Sin(azimuth)
		return s * s, true
	default:
		return math.Cos(azimuth) * math.Sin(azimuth), false
	}
}

// FullspaceTime returns the transient field of a dipole in a homogeneous
// fullspace in the diffusive limit, one row per time. All electric
// source and receiver combinations are supported.
func FullspaceTime(off, azimuth, times []float64, zsrc, zrec, res float64, signal, ab int) ([][]float64, error) {
	native, _, err := abMapping(ab)
	if err != nil {
		return nil, err
	}
	if native > 33 {
		return nil, fmt.Errorf("%w: diffusive fullspace needs electric source and receiver, got %d", ErrNotAnalytical, ab)
	}
	if err := checkSignal(signal); err != nil {
		return nil, err
	}

	zd := zrec - zsrc
	out := make([][]float64, len(times))
	for it, tt := range times {
		if tt <= 0 {
			return nil, errors.New("kernel: times must be positive")
		}
		row := make([]float64, len(off))
		for i, r := range off {
			bigR := math.Hypot(r, zd)
			if bigR == 0 {
				return nil, errors.New("kernel: source and receiver coincide")
			}
			x := r * math.Cos(azimuth[i])
			y := r * math.Sin(azimuth[i])

			var a, b float64
			var diag bool
			switch native {
			case 11:
				a, b, diag = x, x, true
			case 22:
				a, b, diag = y, y, true
			case 12, 21:
				a, b = x, y
			case 13, 31:
				a, b = x, zd
			case 23, 32:
				a, b = y, zd
			case 33:
				a, b, diag = zd, zd, true
			}
			tens := a * b / (bigR * bigR)
			d := boolTo1(diag)

			u := bigR * math.Sqrt(mu0/res) / (2 * math.Sqrt(tt))
			eu := math.Exp(-u * u)
			var f1, f2 float64
			switch signal {
			case 1:
				f1 = math.Erfc(u) + 2*u/math.SqrtPi*eu
				f2 = 4 * u * u * u / math.SqrtPi * eu
			case 0:
				f1 = 2 * u * u * u / (math.SqrtPi * tt) * eu
				f2 = 2 * u * u * u / (math.SqrtPi * tt) * (2*u*u - 3) * eu
			case -1:
				f1 = math.Erf(u) - 2*u/math.SqrtPi*eu
				f2 = -4 * u * u * u / math.SqrtPi * eu
			}
			row[i] = res * ((3*tens-d)*f1 + (tens-d)*f2) / (4 * math.Pi * bigR * bigR * bigR)
		}
		out[it] = row
	}
	return out, nil
}

func checkSignal(signal int) error {
	if signal < -1 || signal > 1 {
		return fmt.Errorf("kernel: signal must be -1, 0 or 1, got %d", signal)
	}
	return nil
}

func boolTo1(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
