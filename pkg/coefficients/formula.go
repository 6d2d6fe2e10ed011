package coefficients

import "math"

// FormulaParams are the analytic torus model's free parameters, named
// after the formula_l0/q/r0/h/cn0/nup/alpha/a/beta fields of the original
// radiation_integrator.cpp constructor. The model is unpolarized: it only
// ever populates JI and AlphaI.
type FormulaParams struct {
	L0, Q      float64 // angular momentum profile (eq. C6)
	R0, H      float64 // fluid number density profile (eq. C5)
	Cn0        float64 // emission/absorption normalization
	NuP        float64 // reference frequency
	Alpha      float64 // emission spectral index
	A, Beta    float64 // absorption normalization and spectral index

	BhM, BhA       float64 // black hole mass and spin
	MomentumFactor float64 // converts geodesic momentum units to CGS
}

// FormulaModel implements Source with the analytic magnetized-torus
// emission/absorption model of the original code-comparison formula
// (2020 ApJ 897 148, appendix C), grounded verbatim on
// formula_coefficients.cpp's CalculateFormulaCoefficients.
type FormulaModel struct {
	P FormulaParams
}

// Raw implements Source. valid is always true. Where the angular
// momentum profile makes -g^tt + 2 g^tph ll - g^phph ll^2 non-positive
// (no timelike circular orbit) the velocity normalization is undefined
// and the returned coefficients are NaN.
func (m FormulaModel) Raw(s Sample, _ float64) (Set, float64, bool) {
	p := m.P

	r := radialCoordinate(p.BhA, s.X, s.Y, s.Z)
	rr := math.Sqrt(r*r - s.Z*s.Z)
	cth := s.Z / r
	sth := math.Sqrt(1.0 - cth*cth)
	ph := math.Atan2(s.Y, s.X) - math.Atan(p.BhA/r)
	sph := math.Sin(ph)
	cph := math.Cos(ph)

	// Boyer-Lindquist metric components.
	delta := r*r - 2.0*p.BhM*r + p.BhA*p.BhA
	sigma := r*r + p.BhA*p.BhA*cth*cth
	gttBL := -(1.0 + 2.0*p.BhM*r*(r*r+p.BhA*p.BhA)/(delta*sigma))
	gtphBL := -2.0 * p.BhM * p.BhA * r / (delta * sigma)
	grrBL := delta / sigma
	gththBL := 1.0 / sigma
	gphphBL := (sigma - 2.0*p.BhM*r) / (delta * sigma * sth * sth)

	// Angular momentum profile, eq. C6.
	ll := p.L0 / (1.0 + rr) * math.Pow(rr, 1.0+p.Q)

	// 4-velocity, eqs. C7-8: Boyer-Lindquist construction transformed to
	// Kerr-Schild.
	uNorm := 1.0 / math.Sqrt(-gttBL+2.0*gtphBL*ll-gphphBL*ll*ll)
	utBL := -uNorm
	uthBL := 0.0
	urBL := 0.0
	uphBL := uNorm * ll

	utLower := gttBL*utBL + gtphBL*uphBL
	urLower := grrBL * urBL
	uthLower := gththBL * uthBL
	uphLower := gtphBL*utBL + gphphBL*uphBL

	ut := utLower + 2.0*p.BhM*r/delta*urLower
	ur := urLower
	uth := uthLower
	uph := uphLower + p.BhA/delta*urLower

	u0 := ut
	u1 := sth*cph*ur + cth*(r*cph-p.BhA*sph)*uth + sth*(-r*sph-p.BhA*cph)*uph
	u2 := sth*sph*ur + cth*(r*sph+p.BhA*cph)*uth + sth*(r*cph-p.BhA*sph)*uph
	u3 := cth*ur - r*sth*uth

	// Fluid-frame number density, eq. C5.
	nN0Fluid := math.Exp(-0.5 * (r*r/(p.R0*p.R0) + p.H*p.H*cth*cth))

	nuFluidCgs := -(u0*s.K0 + u1*s.K1 + u2*s.K2 + u3*s.K3) * p.MomentumFactor

	jNuFluidCgs := p.Cn0 * nN0Fluid * math.Pow(nuFluidCgs/p.NuP, -p.Alpha)
	alphaNuFluidCgs := p.A * p.Cn0 * nN0Fluid * math.Pow(nuFluidCgs/p.NuP, -p.Beta-p.Alpha)

	return Set{
		JI:     jNuFluidCgs,
		AlphaI: alphaNuFluidCgs,
	}, nuFluidCgs, true
}

// radialCoordinate solves the same quartic as pkg/metric.Geometry, kept
// local to this package so the formula model's BL-metric math stays
// self-contained and directly comparable to formula_coefficients.cpp.
func radialCoordinate(a, x, y, z float64) float64 {
	a2 := a * a
	rr := x*x + y*y + z*z
	b := rr - a2
	disc := b*b + 4*a2*z*z
	r2 := 0.5 * (b + math.Sqrt(disc))
	if r2 < 0 {
		r2 = 0
	}
	return math.Sqrt(r2)
}
