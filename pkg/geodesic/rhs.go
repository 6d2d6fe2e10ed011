package geodesic

import "github.com/blacklight-gr/blacklight/pkg/metric"

// rhs evaluates the geodesic equation's right-hand side at state y:
//
//	dx^i/dlambda = g^{i nu} k_nu          (i = 1,2,3)
//	dk_mu/dlambda = -1/2 (d_mu g^{ab}) k_a k_b
//	dlambda/dlambda = 1
//
// matching GeodesicSubstep's evaluation of the geodesic equation against
// the metric and its derivative (pkg/metric.Geometry.Contravariant /
// ContravariantDerivative).
func rhs(geo metric.Geometry, y State) State {
	x, yy, z := y[0], y[1], y[2]
	k := [4]float64{y[3], y[4], y[5], y[6]}

	gcon := geo.Contravariant(x, yy, z)
	dgcon := geo.ContravariantDerivative(x, yy, z)

	var dy State

	// dx^i/dlambda = g^{i nu} k_nu, i = 1,2,3 (spatial slots of gcon, which
	// is indexed 0..3 with 0 the time row/column).
	for i := 1; i <= 3; i++ {
		var sum float64
		for nu := 0; nu < 4; nu++ {
			sum += gcon.At(i, nu) * k[nu]
		}
		dy[i-1] = sum
	}

	// dk_mu/dlambda = -1/2 (d_mu g^{ab}) k_a k_b
	for mu := 0; mu < 4; mu++ {
		var sum float64
		for a := 0; a < 4; a++ {
			for b := 0; b < 4; b++ {
				sum += dgcon.At(a, b, mu) * k[a] * k[b]
			}
		}
		dy[3+mu] = -0.5 * sum
	}

	dy[7] = 1.0 // dlambda/dlambda
	dy[8] = 0.0 // unused

	return dy
}
