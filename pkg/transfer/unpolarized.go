// Package transfer integrates the radiative transfer equation along a
// geodesic's samples, in both the unpolarized scalar form and the full
// polarized Stokes form, per spec.md 4.F.
package transfer

import (
	"math"

	"github.com/blacklight-gr/blacklight/pkg/coefficients"
	"github.com/blacklight-gr/blacklight/pkg/sampler"
)

// Diagnostics accumulates the optional auxiliary integrals spec.md 4.F
// calls out alongside scalar intensity: total path length, total affine
// parameter traversed, the accumulated emission integral, optical depth,
// and tau-weighted means of caller-supplied fluid quantities.
type Diagnostics struct {
	PathLength float64
	Lambda     float64
	JIntegral  float64
	Tau        float64

	weightedSum  map[string]float64
	weightedTau  map[string]float64
}

// WeightedMean returns the tau-weighted mean of a diagnostic quantity
// registered via Unpolarized's diagnostics map, or (0, false) if it was
// never recorded (e.g. zero optical depth throughout).
func (d *Diagnostics) WeightedMean(name string) (float64, bool) {
	tau, ok := d.weightedTau[name]
	if !ok || tau == 0 {
		return 0, false
	}
	return d.weightedSum[name] / tau, true
}

func (d *Diagnostics) accumulate(name string, value, dtau float64) {
	if d.weightedSum == nil {
		d.weightedSum = make(map[string]float64)
		d.weightedTau = make(map[string]float64)
	}
	d.weightedSum[name] += value * dtau
	d.weightedTau[name] += dtau
}

// UnpolarizedResult is the scalar intensity and its diagnostics after
// integrating one ray's samples.
type UnpolarizedResult struct {
	I float64
	Diagnostics
}

// DiagnosticFunc evaluates a named fluid quantity at a sample, for
// tau-weighted-mean diagnostic maps.
type DiagnosticFunc func(sampler.Sample) float64

// Unpolarized integrates dI/dlambda = j_I - alpha_I I along samples
// already in source-to-camera order, using the analytic per-step
// exponential solution and its optically-thin limit, per spec.md 4.F.
func Unpolarized(samples []sampler.Sample, coeffs []coefficients.Set, diag map[string]DiagnosticFunc) UnpolarizedResult {
	var res UnpolarizedResult

	for n := range samples {
		c := coeffs[n]
		dlam := samples[n].DLam

		dtau := c.AlphaI * dlam
		if math.Abs(dtau) > 1e-12 {
			expTerm := math.Exp(-dtau)
			res.I = res.I*expTerm + c.JI*(1-expTerm)/c.AlphaI
		} else {
			res.I = res.I + c.JI*dlam
		}

		res.Lambda += dlam
		res.JIntegral += c.JI * dlam
		res.Tau += dtau

		if n+1 < len(samples) {
			res.PathLength += samples[n+1].Pos.Sub(samples[n].Pos).Len()
		}

		for name, f := range diag {
			res.accumulate(name, f(samples[n]), math.Abs(dtau))
		}
	}

	return res
}
