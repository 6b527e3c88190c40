// Package kernel evaluates the wavenumber-domain electromagnetic response
// of a layered, vertically anisotropic halfspace stack.
//
// The medium is a pile of horizontal layers, each described by horizontal
// and vertical complex conductivities etaH/etaV and magnetic admittivities
// zetaH/zetaV. For a unit dipole source the field splits into a transverse
// magnetic (TM) and a transverse electric (TE) mode; both are propagated
// through the stack with recursive reflection coefficients and combined
// into up to three Hankel-transform integrand containers (PJ0, PJ0b, PJ1).
// A Hankel transform of the containers, weighted by the azimuthal factor
// of the requested source-receiver combination, yields the space-frequency
// domain field.
//
// Source-receiver combinations are two-digit codes: the first digit is the
// receiver component, the second the source component, with 1-3 denoting
// electric x, y, z and 4-6 magnetic x, y, z. The kernel evaluates electric
// receivers with electric sources and magnetic receivers directly; fully
// magnetic combinations are reduced to the electric case by duality, and
// electric receivers with magnetic sources are expected to be mapped onto
// their reciprocal combination by the caller before invoking the kernel.
//
// The package also provides closed-form homogeneous and halfspace
// solutions which serve as analytical references and as the space-domain
// direct field when the wavenumber-domain direct field is bypassed.
package kernel
