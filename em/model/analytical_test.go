package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-em/em/kernel"
	"github.com/cwbudde/algo-em/em/model"
)

func TestAnalyticalHalfspaceRequiresSurface(t *testing.T) {
	_, err := model.Analytical(model.AnalyticalRequest{
		Src:  [3]float64{0, 0, 10},
		RecX: []float64{500}, RecY: []float64{0}, RecZ: 0,
		Res:      1,
		FreqTime: []float64{1},
		Solution: model.SolutionHalfspace,
		AB:       11,
	})
	require.ErrorIs(t, err, model.ErrGeometry)
}

func TestAnalyticalHalfspaceRejectsVerticalComponents(t *testing.T) {
	_, err := model.Analytical(model.AnalyticalRequest{
		Src:  [3]float64{0, 0, 0},
		RecX: []float64{500}, RecY: []float64{0}, RecZ: 0,
		Res:      1,
		FreqTime: []float64{1},
		Solution: model.SolutionHalfspace,
		AB:       33,
	})
	require.ErrorIs(t, err, kernel.ErrNotAnalytical)
}

func TestAnalyticalFullspaceRejectsTransient(t *testing.T) {
	sig := 0
	_, err := model.Analytical(model.AnalyticalRequest{
		Src:  [3]float64{0, 0, 100},
		RecX: []float64{500}, RecY: []float64{0}, RecZ: 150,
		Res:      1,
		FreqTime: []float64{0.1},
		Signal:   &sig,
		Solution: model.SolutionFullspace,
		AB:       11,
	})
	require.ErrorIs(t, err, kernel.ErrNotAnalytical)
}

func TestAnalyticalDirectTransient(t *testing.T) {
	sigOn, sigOff := 1, -1
	times := []float64{0.1, 1, 10}
	base := model.AnalyticalRequest{
		Src:  [3]float64{0, 0, 100},
		RecX: []float64{800}, RecY: []float64{300}, RecZ: 200,
		Res:      2,
		FreqTime: times,
		Solution: model.SolutionDirect,
		AB:       11,
	}

	on := base
	on.Signal = &sigOn
	resOn, err := model.Analytical(on)
	require.NoError(t, err)

	off := base
	off.Signal = &sigOff
	resOff, err := model.Analytical(off)
	require.NoError(t, err)

	// Switch-on and switch-off responses sum to the DC step level.
	dc := resOn.TD[len(times)-1][0] + resOff.TD[len(times)-1][0]
	for i := range times {
		sum := resOn.TD[i][0] + resOff.TD[i][0]
		require.InEpsilon(t, dc, sum, 1e-10)
	}
}

func TestAnalyticalDiffusiveLowFrequencyLimit(t *testing.T) {
	// At low frequency the full wavefield reduces to the diffusive one.
	base := model.AnalyticalRequest{
		Src:  [3]float64{0, 0, 100},
		RecX: []float64{800}, RecY: []float64{300}, RecZ: 200,
		Res:      2,
		FreqTime: []float64{0.01},
		AB:       11,
	}
	full := base
	full.Solution = model.SolutionFullspace
	fs, err := model.Analytical(full)
	require.NoError(t, err)

	diff := base
	diff.Solution = model.SolutionDirect
	dfs, err := model.Analytical(diff)
	require.NoError(t, err)

	requireCmplxClose(t, fs.EM[0][0], dfs.EM[0][0], 1e-8)
}
