// Package transform turns wavenumber-domain kernels into space-domain
// fields (Hankel transform) and frequency-domain responses into
// time-domain signals (Fourier transform).
//
// The Hankel side integrates the three kernel containers against J0 and
// J1 with a choice of engines: digital linear filters in standard,
// lagged-convolution and splined variants, quadrature with extrapolation
// (QWE), and adaptive quadrature on a splined kernel. The Fourier side
// offers the corresponding sine/cosine filters, QWE, a log-periodic
// spectral transform (FFTLog) and a plain FFT.
//
// All engines report Diagnostics alongside the result. Quadrature
// engines that run out of budget return their best estimate with
// Converged unset rather than failing.
package transform
