package transform_test

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-em/em/filters"
	"github.com/cwbudde/algo-em/em/transform"
	"github.com/cwbudde/algo-em/internal/testutil"
)

// relaxResponse samples F(w) = 1/(a+iw), the spectrum of the causal
// relaxation e^{-a t}. Its time-domain responses are known in closed
// form for all three source signals.
func relaxResponse(freqs []float64, a float64) []complex128 {
	fresp := make([]complex128, len(freqs))
	for i, f := range freqs {
		w := 2 * math.Pi * f
		fresp[i] = 1 / complex(a, w)
	}
	return fresp
}

func relaxWant(t, a float64, signal int) float64 {
	switch signal {
	case 0:
		return math.Exp(-a * t)
	case 1:
		return (1 - math.Exp(-a*t)) / a
	default:
		return math.Exp(-a*t) / a
	}
}

func runFourier(t *testing.T, cfg transform.FourierConfig, times []float64, a float64, signal int, rtol float64) {
	t.Helper()
	freqs, err := transform.RequiredFreqs(times, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, diag, err := transform.Fourier(freqs, relaxResponse(freqs, a), times, signal, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !diag.Converged {
		t.Fatalf("engine did not converge: %+v", diag)
	}
	for i, ti := range times {
		testutil.RequireRelClose(t, got[i], relaxWant(ti, a, signal), rtol)
	}
}

func TestFourierDLFStandardRelaxation(t *testing.T) {
	times := testutil.Logspace(math.Log10(0.05), math.Log10(3), 8)
	for _, signal := range []int{0, 1, -1} {
		runFourier(t, transform.FourierConfig{}, times, 1, signal, 1e-3)
	}
}

func TestFourierDLFLaggedRelaxation(t *testing.T) {
	times := testutil.Logspace(math.Log10(0.05), math.Log10(3), 10)
	cfg := transform.FourierConfig{PtsPerDec: -1}
	for _, signal := range []int{0, 1, -1} {
		runFourier(t, cfg, times, 1, signal, 5e-3)
	}
}

func TestFourierDLFSplinedRelaxation(t *testing.T) {
	times := testutil.Logspace(math.Log10(0.05), math.Log10(3), 10)
	cfg := transform.FourierConfig{PtsPerDec: 40}
	for _, signal := range []int{0, 1, -1} {
		runFourier(t, cfg, times, 1, signal, 1e-2)
	}
}

func TestFourierQWERelaxation(t *testing.T) {
	times := []float64{0.1, 0.5, 2}
	cfg := transform.FourierConfig{Method: transform.FourierQWE, PtsPerDec: 40}
	for _, signal := range []int{0, 1, -1} {
		runFourier(t, cfg, times, 1, signal, 1e-2)
	}
}

func TestFourierFFTLogRelaxation(t *testing.T) {
	times := testutil.Logspace(math.Log10(0.05), math.Log10(3), 10)
	cfg := transform.FourierConfig{Method: transform.FourierFFTLog, PtsPerDec: 30}
	for _, signal := range []int{0, 1, -1} {
		runFourier(t, cfg, times, 1, signal, 1e-2)
	}
}

func TestFourierFFTRelaxation(t *testing.T) {
	times := []float64{0.2, 1}
	cfg := transform.FourierConfig{Method: transform.FourierFFT}
	// Step responses gain an extra 1/w of spectral decay, which keeps
	// the truncation ringing of the plain FFT small.
	for _, signal := range []int{1, -1} {
		runFourier(t, cfg, times, 1, signal, 2e-2)
	}
}

func TestRequiredFreqsShapes(t *testing.T) {
	times := []float64{0.1, 1}

	// Standard DLF: one filter-length block of samples per output time.
	filt, err := filters.Fourier301()
	if err != nil {
		t.Fatal(err)
	}
	freqs, err := transform.RequiredFreqs(times, transform.FourierConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != len(times)*len(filt.Base) {
		t.Fatalf("standard grid length = %d, want %d", len(freqs), len(times)*len(filt.Base))
	}

	freqs, err = transform.RequiredFreqs(times, transform.FourierConfig{PtsPerDec: -1})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i] <= freqs[i-1] {
			t.Fatal("lagged grid must be strictly increasing")
		}
	}

	freqs, err = transform.RequiredFreqs(times, transform.FourierConfig{Method: transform.FourierFFT, DFreq: 0.01, NFreq: 16})
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != 16 {
		t.Fatalf("fft grid length = %d, want 16", len(freqs))
	}
	testutil.RequireRelClose(t, freqs[0], 0.01, 1e-12)
	testutil.RequireRelClose(t, freqs[15], 0.16, 1e-12)
}

func TestFourierRejectsBadInput(t *testing.T) {
	times := []float64{0.1, 1}
	freqs, err := transform.RequiredFreqs(times, transform.FourierConfig{})
	if err != nil {
		t.Fatal(err)
	}
	fresp := relaxResponse(freqs, 1)

	if _, _, err := transform.Fourier(freqs, fresp[:len(fresp)-1], times, 0, transform.FourierConfig{}); err == nil {
		t.Fatal("expected error for mismatched response length")
	}
	if _, _, err := transform.Fourier(freqs, fresp, times, 2, transform.FourierConfig{}); err == nil {
		t.Fatal("expected error for invalid signal")
	}
	if _, _, err := transform.Fourier(freqs, fresp, []float64{-1}, 0, transform.FourierConfig{}); err == nil {
		t.Fatal("expected error for negative time")
	}

	// FFTLog insists on its log-equispaced grid.
	lin := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if _, _, err := transform.Fourier(lin, relaxResponse(lin, 1), times, 0,
		transform.FourierConfig{Method: transform.FourierFFTLog}); err == nil {
		t.Fatal("expected error for linear grid")
	}
}
