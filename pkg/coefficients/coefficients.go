// Package coefficients binds a physical fluid model to the radiative
// transfer coefficients (j_I, j_Q, j_V, alpha_I, alpha_Q, alpha_V, rho_Q,
// rho_V) at each sample, per spec.md 4.E.
package coefficients

import "math"

// Set holds the eight coefficient channels at one sample, in the
// frequency-normalized units radiative transfer expects (j by nu^2,
// alpha by nu, per spec.md 4.E).
type Set struct {
	JI, JQ, JV             float64
	AlphaI, AlphaQ, AlphaV float64
	RhoQ, RhoV             float64
}

// Sample is the minimal per-sample input a coefficient source needs: the
// Kerr-Schild Cartesian position and the covariant photon momentum there.
// The observed (camera-frame) frequency is passed to Source.Raw
// separately.
type Sample struct {
	X, Y, Z        float64
	K0, K1, K2, K3 float64
}

// Source is a physical model capable of producing radiative transfer
// coefficients at a sample, given the observed frequency. Raw returns
// values in CGS units along with the fluid-frame frequency used to
// compute them and whether the underlying fluid state was valid; Bind
// performs the frequency-unit normalization spec.md 4.E assigns to the
// binder itself, not the model.
type Source interface {
	Raw(s Sample, cameraNu float64) (raw Set, nuFluidCgs float64, valid bool)
}

// FallbackPolicy controls what happens when a model reports an invalid
// fluid sample (spec.md 4.E).
type FallbackPolicy struct {
	// NaN substitutes NaN into every channel when true; otherwise the
	// model itself is responsible for substituting a fallback density
	// or pressure and reporting valid=true with that substituted state.
	NaN bool
}

// Bind evaluates src at s and normalizes the result to the units
// radiative transfer integrates in: j divided by nu^2, alpha multiplied
// by nu (consistent with Lorentz-invariant transport, spec.md 4.E).
func Bind(src Source, s Sample, cameraNu float64, fb FallbackPolicy) Set {
	raw, nu, valid := src.Raw(s, cameraNu)
	if !valid && fb.NaN {
		return Set{
			JI: math.NaN(), JQ: math.NaN(), JV: math.NaN(),
			AlphaI: math.NaN(), AlphaQ: math.NaN(), AlphaV: math.NaN(),
			RhoQ: math.NaN(), RhoV: math.NaN(),
		}
	}

	nu2 := nu * nu
	return Set{
		JI:     raw.JI / nu2,
		JQ:     raw.JQ / nu2,
		JV:     raw.JV / nu2,
		AlphaI: raw.AlphaI * nu,
		AlphaQ: raw.AlphaQ * nu,
		AlphaV: raw.AlphaV * nu,
		RhoQ:   raw.RhoQ * nu,
		RhoV:   raw.RhoV * nu,
	}
}
