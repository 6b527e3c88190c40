// Package model computes electromagnetic responses of horizontally
// layered media for dipole and bipole sources.
//
// Dipole runs the full pipeline for a unit point dipole: per-layer
// admittivities, wavenumber-domain kernel, Hankel transform to the space
// domain and, for time-domain requests, a Fourier transform over the
// frequency axis. Bipole integrates point-dipole responses over
// finite-length antennas, and Analytical provides closed-form fullspace
// and halfspace references for cross-checks.
//
// All calls are pure functions of their request structs; nothing is
// cached between calls and independent calls may run concurrently.
package model
