package coefficients

import (
	"math"
	"testing"
)

func testFormulaParams() FormulaParams {
	return FormulaParams{
		L0: 1.0, Q: 0.5,
		R0: 6.0, H: 0.1,
		Cn0: 1e18, NuP: 230e9, Alpha: 1.0,
		A: 1e-10, Beta: 2.0,
		BhM: 1.0, BhA: 0.9, MomentumFactor: 1.0,
	}
}

func TestFormulaModelProducesPositiveCoefficients(t *testing.T) {
	m := FormulaModel{P: testFormulaParams()}
	s := Sample{X: 8, Y: 2, Z: 1, K0: -1, K1: -0.9, K2: 0.1, K3: 0.05}

	raw, nu, valid := m.Raw(s, 230e9)
	if !valid {
		t.Fatalf("formula model should always report valid fluid state")
	}
	if nu <= 0 {
		t.Fatalf("expected positive fluid-frame frequency, got %g", nu)
	}
	if raw.JI <= 0 || math.IsNaN(raw.JI) {
		t.Fatalf("expected positive finite emission coefficient, got %g", raw.JI)
	}
	if raw.AlphaI <= 0 || math.IsNaN(raw.AlphaI) {
		t.Fatalf("expected positive finite absorption coefficient, got %g", raw.AlphaI)
	}
}

func TestBindNormalizesFrequencyUnits(t *testing.T) {
	m := FormulaModel{P: testFormulaParams()}
	s := Sample{X: 8, Y: 2, Z: 1, K0: -1, K1: -0.9, K2: 0.1, K3: 0.05}

	raw, nu, _ := m.Raw(s, 230e9)
	bound := Bind(m, s, 230e9, FallbackPolicy{})

	if math.Abs(bound.JI-raw.JI/(nu*nu)) > 1e-12*math.Abs(raw.JI/(nu*nu)) {
		t.Fatalf("Bind did not normalize JI by nu^2: got %g, want %g", bound.JI, raw.JI/(nu*nu))
	}
	if math.Abs(bound.AlphaI-raw.AlphaI*nu) > 1e-12*math.Abs(raw.AlphaI*nu) {
		t.Fatalf("Bind did not normalize AlphaI by nu: got %g, want %g", bound.AlphaI, raw.AlphaI*nu)
	}
}

type alwaysInvalidSource struct{}

func (alwaysInvalidSource) Raw(Sample, float64) (Set, float64, bool) {
	return Set{JI: 1, AlphaI: 1}, 1, false
}

func TestBindNaNFallback(t *testing.T) {
	bound := Bind(alwaysInvalidSource{}, Sample{}, 1, FallbackPolicy{NaN: true})
	if !math.IsNaN(bound.JI) || !math.IsNaN(bound.AlphaI) {
		t.Fatalf("expected NaN fallback to propagate NaN into every channel, got %+v", bound)
	}
}
