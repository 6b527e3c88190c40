package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-em/em/model"
)

func TestBipoleReducesToDipole(t *testing.T) {
	freqs := []float64{0.25, 1}

	bip, err := model.Bipole(model.BipoleRequest{
		Src:      [6]float64{-50, 50, 0, 0, 250, 250},
		Rec:      [6]float64{575, 625, 300, 300, 300, 300},
		SrcPts:   1,
		RecPts:   1,
		Model:    canonical(),
		FreqTime: freqs,
	})
	require.NoError(t, err)

	dip, err := model.Dipole(model.Request{
		Src:  [3]float64{0, 0, 250},
		RecX: []float64{600}, RecY: []float64{300}, RecZ: 300,
		Model:    canonical(),
		FreqTime: freqs,
		AB:       11,
	})
	require.NoError(t, err)

	for i := range freqs {
		requireCmplxClose(t, bip.EM[i][0], dip.EM[i][0], 1e-12)
	}
}

func TestBipoleOrientationDecomposition(t *testing.T) {
	// A source wire at 45 degrees in the horizontal plane excites the x
	// and y dipoles with equal weight.
	freqs := []float64{1}
	l := 50 * math.Sqrt2 / 2

	bip, err := model.Bipole(model.BipoleRequest{
		Src:      [6]float64{-l, l, -l, l, 250, 250},
		Rec:      [6]float64{875, 925, 400, 400, 300, 300},
		SrcPts:   1,
		RecPts:   1,
		Model:    canonical(),
		FreqTime: freqs,
	})
	require.NoError(t, err)

	var want complex128
	w := math.Sqrt2 / 2
	for _, ab := range []int{11, 12} {
		dip, err := model.Dipole(model.Request{
			Src:  [3]float64{0, 0, 250},
			RecX: []float64{900}, RecY: []float64{400}, RecZ: 300,
			Model:    canonical(),
			FreqTime: freqs,
			AB:       ab,
		})
		require.NoError(t, err)
		want += complex(w, 0) * dip.EM[0][0]
	}
	requireCmplxClose(t, bip.EM[0][0], want, 1e-12)
}

func TestBipoleSegmentRefinement(t *testing.T) {
	freqs := []float64{1}
	req := model.BipoleRequest{
		Src:      [6]float64{-100, 100, 0, 0, 250, 250},
		Rec:      [6]float64{1950, 2050, 0, 0, 300, 300},
		SrcPts:   3,
		RecPts:   3,
		Model:    canonical(),
		FreqTime: freqs,
	}
	coarse, err := model.Bipole(req)
	require.NoError(t, err)

	req.SrcPts, req.RecPts = 5, 5
	fine, err := model.Bipole(req)
	require.NoError(t, err)

	requireCmplxClose(t, coarse.EM[0][0], fine.EM[0][0], 1e-4)
}

func TestBipoleStrengthScaling(t *testing.T) {
	freqs := []float64{1}
	req := model.BipoleRequest{
		Src:      [6]float64{-50, 50, 0, 0, 250, 250},
		Rec:      [6]float64{900, 950, 0, 0, 300, 300},
		SrcPts:   1,
		RecPts:   1,
		Model:    canonical(),
		FreqTime: freqs,
	}
	unit, err := model.Bipole(req)
	require.NoError(t, err)

	req.Strength = 2
	scaled, err := model.Bipole(req)
	require.NoError(t, err)

	// strength * srcLen * recLen = 2 * 100 * 50.
	requireCmplxClose(t, scaled.EM[0][0], complex(1e4, 0)*unit.EM[0][0], 1e-12)
}

func TestBipoleMagneticReceiver(t *testing.T) {
	freqs := []float64{1}

	bip, err := model.Bipole(model.BipoleRequest{
		Src:      [6]float64{-50, 50, 0, 0, 250, 250},
		Rec:      [6]float64{875, 925, 400, 400, 300, 300},
		Mrec:     true,
		SrcPts:   1,
		RecPts:   1,
		Model:    canonical(),
		FreqTime: freqs,
	})
	require.NoError(t, err)

	dip, err := model.Dipole(model.Request{
		Src:  [3]float64{0, 0, 250},
		RecX: []float64{900}, RecY: []float64{400}, RecZ: 300,
		Model:    canonical(),
		FreqTime: freqs,
		AB:       41,
	})
	require.NoError(t, err)
	requireCmplxClose(t, bip.EM[0][0], dip.EM[0][0], 1e-12)
}

func TestBipoleRejectsZeroLengthAntenna(t *testing.T) {
	_, err := model.Bipole(model.BipoleRequest{
		Src:      [6]float64{0, 0, 0, 0, 250, 250},
		Rec:      [6]float64{875, 925, 0, 0, 300, 300},
		Model:    canonical(),
		FreqTime: []float64{1},
	})
	require.ErrorIs(t, err, model.ErrGeometry)
}
