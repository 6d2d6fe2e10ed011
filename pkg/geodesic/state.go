// Package geodesic implements the adaptive Dormand-Prince null-geodesic
// integrator (spec.md 4.C): given a camera ray's initial (position,
// momentum), it integrates the geodesic equation outward on a Kerr
// background (pkg/metric) until the ray is swallowed by the horizon,
// escapes past the termination radius, or is flagged as numerically
// divergent.
package geodesic

import "github.com/blacklight-gr/blacklight/pkg/vecmat"

// State is the 9-component integration vector y = (x1,x2,x3, k0,k1,k2,k3,
// lambda, unused), matching geodesic_integrator.hpp's GeodesicSubstep
// signature. The trailing "unused" slot is carried along for parity with
// the original state layout; nothing in this package reads or writes it
// except to copy it through a step.
type State [9]float64

// NewState builds a state from a spatial position, covariant momentum, and
// starting affine parameter.
func NewState(x vecmat.Vec3, k vecmat.Vec4, lambda float64) State {
	return State{x[0], x[1], x[2], k[0], k[1], k[2], k[3], lambda, 0}
}

// Pos returns the spatial position (x,y,z).
func (s State) Pos() vecmat.Vec3 {
	return vecmat.Vec3{s[0], s[1], s[2]}
}

// Mom returns the covariant momentum k_mu.
func (s State) Mom() vecmat.Vec4 {
	return vecmat.Vec4From(s[3], s[4], s[5], s[6])
}

// Lambda returns the affine parameter carried in the state.
func (s State) Lambda() float64 {
	return s[7]
}

// Flag records why a ray's integration stopped early, per spec.md 4.C /
// 3 ("flagged"). A ray with Flag == FlagNone completed normally, either
// swallowed or escaped.
type Flag uint8

const (
	// FlagNone indicates the ray reached a normal termination (swallowed or
	// escaped) without numerical trouble.
	FlagNone Flag = 0
	// FlagRetriesExhausted: step-size shrinking exhausted ray_max_retries
	// without meeting the error tolerance.
	FlagRetriesExhausted Flag = 1 << iota
	// FlagMaxStepsExceeded: the integrator took ray_max_steps accepted
	// steps without terminating.
	FlagMaxStepsExceeded
	// FlagMomentumSignFlip: k_0 changed sign between accepted steps, a
	// signature of numerical breakdown near the horizon.
	FlagMomentumSignFlip
	// FlagNonFinite: the state developed a NaN or Inf component.
	FlagNonFinite
)

// Flagged reports whether any abort condition was raised.
func (f Flag) Flagged() bool {
	return f != FlagNone
}

// Outcome records how a geodesic terminated, independent of whether it was
// flagged: Swallowed/Escaped are the two "success" termination predicates
// of spec.md 4.C; Unterminated means the ray was flagged before reaching
// either.
type Outcome uint8

const (
	Unterminated Outcome = iota
	Swallowed
	Escaped
)

// Ray is the finite ordered sequence of integrator states for one pixel,
// stored as parallel contiguous slices (spec.md 3's "sample array" owning
// convention, kept for the raw geodesic trajectory too).
type Ray struct {
	Lambda   []float64
	Pos      []vecmat.Vec3
	Mom      []vecmat.Vec4
	NumSteps int
	Flag     Flag
	Outcome  Outcome
}

// at returns the state at step n as a convenience accessor for sampling and
// tests.
func (r *Ray) at(n int) (lambda float64, x vecmat.Vec3, k vecmat.Vec4) {
	return r.Lambda[n], r.Pos[n], r.Mom[n]
}
