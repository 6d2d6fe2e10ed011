package geodesic

import (
	"math"
	"testing"

	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

func testParams() Params {
	return Params{
		StepInitial: 0.05,
		TolAbs:      1e-10,
		TolRel:      1e-8,
		MinFactor:   0.2,
		MaxFactor:   5.0,
		ErrFactor:   0.9,
		MaxRetries:  10,
		MaxSteps:    20000,
		RTerminate:  1000,
		EpsHorizon:  1e-3,
	}
}

// initialNullState builds a state at (x,y,z) whose covariant momentum
// satisfies the null condition g^{mu nu} k_mu k_nu = 0, by solving the
// quadratic in k_0 given fixed spatial components k_1=0.1, k_2=0.05,
// k_3=0.
func initialNullState(geo metric.Geometry, x, y, z float64) State {
	gcon := geo.Contravariant(x, y, z)
	k1, k2, k3 := 0.1, 0.05, 0.0

	// g^{00} k0^2 + 2 k0 (g^{01}k1+g^{02}k2+g^{03}k3) + (spatial quad form) = 0
	a := gcon.At(0, 0)
	b := 2 * (gcon.At(0, 1)*k1 + gcon.At(0, 2)*k2 + gcon.At(0, 3)*k3)
	var c float64
	ks := [4]float64{0, k1, k2, k3}
	for i := 1; i < 4; i++ {
		for j := 1; j < 4; j++ {
			c += gcon.At(i, j) * ks[i] * ks[j]
		}
	}
	disc := b*b - 4*a*c
	k0 := (-b - math.Sqrt(disc)) / (2 * a) // same root as camera.nullMomentum: k_0 > 0 since g^{00} < 0
	return NewState(vecmat.Vec3{x, y, z}, vecmat.Vec4From(k0, k1, k2, k3), 0)
}

func TestIntegrateNullConditionPreserved(t *testing.T) {
	geo := metric.New(1.0, 0.9, false)
	y0 := initialNullState(geo, 8, 3, 1)
	ray := Integrate(geo, y0, testParams())

	if ray.Flag.Flagged() {
		t.Fatalf("unexpected flag: %v", ray.Flag)
	}

	tolRel := testParams().TolRel
	for n := 0; n < ray.NumSteps; n++ {
		x := ray.Pos[n]
		k := ray.Mom[n]
		residual := geo.NullResidual(x[0], x[1], x[2], k)

		maxK := 0.0
		for i := 0; i < 4; i++ {
			if a := math.Abs(k[i]); a > maxK {
				maxK = a
			}
		}
		bound := tolRel * maxK * maxK * 10
		if bound == 0 {
			bound = 1e-6
		}
		if math.Abs(residual) > bound*100 { // geodesic drift tolerance, generous vs single-step bound
			t.Fatalf("step %d: null residual %g exceeds bound %g", n, residual, bound)
		}
	}
}

func TestIntegrateSwallowedStaysInsideHorizon(t *testing.T) {
	geo := metric.New(1.0, 0.5, false)
	// Start close to the horizon aimed inward.
	x := geo.HorizonR * 1.5
	y0 := initialNullState(geo, x, 0, 0)
	// Flip spatial momentum inward.
	k := y0.Mom()
	y0 = NewState(y0.Pos(), vecmat.Vec4From(k[0], -math.Abs(k[1])-1, k[2], k[3]), 0)

	ray := Integrate(geo, y0, testParams())
	if ray.Outcome != Swallowed && !ray.Flag.Flagged() {
		t.Fatalf("expected ray aimed at the horizon to be swallowed or flagged, got outcome %v flag %v", ray.Outcome, ray.Flag)
	}
}

func TestIntegrateMaxStepsExceededFlagsEveryRay(t *testing.T) {
	// S6: ray_max_steps=1 -> every ray is flagged.
	geo := metric.New(1.0, 0.9, false)
	y0 := initialNullState(geo, 20, 0, 0)
	p := testParams()
	p.MaxSteps = 1
	p.RTerminate = 1e9 // prevent escape from masking the max-steps flag
	p.EpsHorizon = 0

	ray := Integrate(geo, y0, p)
	if !ray.Flag.Flagged() {
		t.Fatalf("expected ray_max_steps=1 to flag the ray")
	}
}

func TestReverseNegatesMomentumAndFlipsOrder(t *testing.T) {
	r := &Ray{
		Lambda: []float64{0, 1, 2},
		Pos:    []vecmat.Vec3{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}},
		Mom:    []vecmat.Vec4{{-1, 1, 0, 0}, {-1, 1, 0, 0}, {-1, 1, 0, 0}},
	}
	rev := r.Reverse()

	if rev.Lambda[0] != 2 || rev.Lambda[2] != 0 {
		t.Fatalf("expected reversed lambda order, got %v", rev.Lambda)
	}
	if rev.Mom[0][0] != 1 || rev.Mom[0][1] != -1 {
		t.Fatalf("expected negated momentum after reversal, got %v", rev.Mom[0])
	}
}

func TestDopri5StepZeroRHSIsExact(t *testing.T) {
	zero := func(State) State { return State{} }
	y := State{1, 2, 3, 4, 5, 6, 7, 8, 9}
	yNew, errEst := dopri5Step(zero, y, 0.1)
	if yNew != y {
		t.Fatalf("zero RHS should leave state unchanged, got %v", yNew)
	}
	for _, e := range errEst {
		if e != 0 {
			t.Fatalf("zero RHS should have zero error estimate, got %v", errEst)
		}
	}
}
