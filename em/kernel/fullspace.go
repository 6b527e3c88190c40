package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrNotAnalytical reports a request for which no closed-form solution
// is implemented.
var ErrNotAnalytical = errors.New("kernel: no analytical solution for this configuration")

// Fullspace returns the space-frequency domain field of a unit dipole in
// a homogeneous isotropic medium, one value per offset. eta and zeta are
// the admittivities of the medium, zsrc and zrec the vertical positions,
// and azimuth the receiver azimuths in radians, measured from the source
// dipole x-axis.
func Fullspace(off, azimuth []float64, zsrc, zrec float64, eta, zeta complex128, ab int) ([]complex128, error) {
	native, dual, err := abMapping(ab)
	if err != nil {
		return nil, err
	}
	if dual {
		eta, zeta = zeta, eta
	}
	if len(off) != len(azimuth) {
		return nil, errors.New("kernel: off and azimuth must have equal length")
	}

	gamma := cmplx.Sqrt(eta * zeta)
	out := make([]complex128, len(off))
	zd := zrec - zsrc

	for i, r := range off {
		bigR := math.Hypot(r, zd)
		if bigR == 0 {
			return nil, errors.New("kernel: source and receiver coincide")
		}
		x := r * math.Cos(azimuth[i])
		y := r * math.Sin(azimuth[i])

		// Scalar Green's function and its first two radial derivatives.
		g := cmplx.Exp(-gamma*complex(bigR, 0)) / complex(bigR, 0)
		g1 := -(gamma + complex(1/bigR, 0)) * g
		g2 := (gamma*gamma + 2*gamma/complex(bigR, 0) + complex(2/(bigR*bigR), 0)) * g

		switch native {
		case 11, 12, 21, 22, 13, 23, 31, 32, 33:
			// E_ab = (d_a d_b - delta_ab gamma^2) G / (4 pi eta).
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
			t := a * b / (bigR * bigR)
			e := complex(t, 0)*g2 - complex(t/bigR, 0)*g1
			if diag {
				e += g1/complex(bigR, 0) - gamma*gamma*g
			}
			out[i] = e / (4 * math.Pi * eta)
		case 41, 52:
			out[i] = 0
		case 51:
			out[i] = complex(zd/bigR, 0) * g1 / (4 * math.Pi)
		case 42:
			out[i] = -complex(zd/bigR, 0) * g1 / (4 * math.Pi)
		case 61:
			out[i] = -complex(y/bigR, 0) * g1 / (4 * math.Pi)
		case 62:
			out[i] = complex(x/bigR, 0) * g1 / (4 * math.Pi)
		case 43:
			out[i] = complex(y/bigR, 0) * g1 / (4 * math.Pi)
		case 53:
			out[i] = -complex(x/bigR, 0) * g1 / (4 * math.Pi)
		default:
			return nil, fmt.Errorf("%w: ab %d", ErrNotAnalytical, ab)
		}
	}
	return out, nil
}
