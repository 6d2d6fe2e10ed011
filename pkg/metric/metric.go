// Package metric implements the Kerr spacetime geometry in Cartesian
// Kerr-Schild coordinates: the implicit radial coordinate, the covariant and
// contravariant metric tensor, and the metric's partial derivatives needed
// by the geodesic integrator's right-hand side (pkg/geodesic).
//
// Grounded on geodesic_integrator.hpp's RadialGeodesicCoordinate /
// CovariantGeodesicMetric / ContravariantGeodesicMetric /
// ContravariantGeodesicMetricDerivative signatures; all formulas are the
// standard closed-form Kerr-Schild rank-one perturbation of Minkowski,
// g = eta + f * l (x) l, with l null with respect to both eta and g.
package metric

import (
	"math"

	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

// Geometry holds the immutable black-hole parameters: mass M (normalized to
// 1 in code units by convention) and dimensionless spin a. Constructed once
// and read-only for the lifetime of a run.
type Geometry struct {
	M         float64
	A         float64
	HorizonR  float64 // r_+ = M + sqrt(M^2 - a^2)
	Flat      bool    // ray_flat: substitute Minkowski for pipeline validation
}

// New builds a Geometry for the given mass and spin. Panics if |a| > m,
// which would make the horizon complex: this is a construction-time
// invariant, not a per-ray recoverable condition.
func New(m, a float64, flat bool) Geometry {
	if math.Abs(a) > m {
		panic("metric: |a| must not exceed m")
	}
	return Geometry{
		M:        m,
		A:        a,
		HorizonR: m + math.Sqrt(m*m-a*a),
		Flat:     flat,
	}
}

// eta is the Minkowski metric in (-,+,+,+) signature, used both as the flat
// fallback (Flat == true) and as the background for the Kerr-Schild
// perturbation.
var eta = vecmat.Mat4{
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// radialDerivs bundles r and its three spatial partial derivatives, since
// every downstream quantity (l, f, and their derivatives) needs all four.
type radialDerivs struct {
	r, drDx, drDy, drDz float64
}

// RadialCoordinate solves r^4 - (x^2+y^2+z^2-a^2) r^2 - a^2 z^2 = 0 for the
// non-negative root, per spec.md 4.A.
func (g Geometry) RadialCoordinate(x, y, z float64) float64 {
	return g.radial(x, y, z).r
}

func (g Geometry) radial(x, y, z float64) radialDerivs {
	if g.Flat {
		r := math.Sqrt(x*x + y*y + z*z)
		if r < 1e-300 {
			return radialDerivs{r: 0}
		}
		return radialDerivs{r: r, drDx: x / r, drDy: y / r, drDz: z / r}
	}

	a2 := g.A * g.A
	rr := x*x + y*y + z*z
	b := rr - a2
	disc := b*b + 4*a2*z*z
	r2 := 0.5 * (b + math.Sqrt(disc))
	if r2 < 0 {
		r2 = 0
	}
	r := math.Sqrt(r2)

	// Implicit differentiation of F(r,x,y,z) = r^4 - (rr-a^2) r^2 - a^2 z^2.
	denom := 2*r2 - b // = 2r^2 - (rr - a^2)
	if math.Abs(denom) < 1e-300 || r < 1e-300 {
		return radialDerivs{r: r}
	}
	return radialDerivs{
		r:    r,
		drDx: x * r / denom,
		drDy: y * r / denom,
		drDz: z * (r2 + a2) / (r * denom),
	}
}

// nullVector bundles l_mu (covariant null vector) with its spatial
// derivatives ∂_alpha l_mu, alpha = x,y,z.
type nullVector struct {
	l       vecmat.Vec4    // l_t, l_x, l_y, l_z
	dl      [3]vecmat.Vec4 // d l_mu / d x^alpha for alpha = x,y,z
	f       float64
	df      [3]float64 // d f / d x^alpha
	bigA    float64    // r^2 + a^2
	den     float64    // r^4 + a^2 z^2
}

func (g Geometry) nullVectorAt(x, y, z float64, rd radialDerivs) nullVector {
	a := g.A
	r := rd.r
	r2 := r * r
	a2 := a * a

	var nv nullVector
	nv.bigA = r2 + a2
	if nv.bigA < 1e-300 {
		nv.bigA = 1e-300
	}

	lx := (r*x + a*y) / nv.bigA
	ly := (r*y - a*x) / nv.bigA
	var lz float64
	if r > 1e-300 {
		lz = z / r
	}
	nv.l = vecmat.Vec4From(1, lx, ly, lz)

	dA := [3]float64{2 * r * rd.drDx, 2 * r * rd.drDy, 2 * r * rd.drDz}

	// d l_x / d x^alpha
	nv.dl[0][1] = ((rd.drDx*x+r)*nv.bigA - (r*x+a*y)*dA[0]) / (nv.bigA * nv.bigA)
	nv.dl[1][1] = ((rd.drDy*x+a)*nv.bigA - (r*x+a*y)*dA[1]) / (nv.bigA * nv.bigA)
	nv.dl[2][1] = (rd.drDz*x*nv.bigA - (r*x+a*y)*dA[2]) / (nv.bigA * nv.bigA)

	// d l_y / d x^alpha
	nv.dl[0][2] = ((rd.drDx*y-a)*nv.bigA - (r*y-a*x)*dA[0]) / (nv.bigA * nv.bigA)
	nv.dl[1][2] = ((rd.drDy*y+r)*nv.bigA - (r*y-a*x)*dA[1]) / (nv.bigA * nv.bigA)
	nv.dl[2][2] = (rd.drDz*y*nv.bigA - (r*y-a*x)*dA[2]) / (nv.bigA * nv.bigA)

	// d l_z / d x^alpha
	if r > 1e-300 {
		nv.dl[0][3] = -z * rd.drDx / r2
		nv.dl[1][3] = -z * rd.drDy / r2
		nv.dl[2][3] = (r - z*rd.drDz) / r2
	}

	// f = 2 M r^3 / (r^4 + a^2 z^2)
	r3 := r2 * r
	r4 := r2 * r2
	nv.den = r4 + a2*z*z
	if nv.den < 1e-300 {
		nv.den = 1e-300
	}
	nv.f = 2 * g.M * r3 / nv.den
	dN := [3]float64{6 * g.M * r2 * rd.drDx, 6 * g.M * r2 * rd.drDy, 6 * g.M * r2 * rd.drDz}
	dDen := [3]float64{
		4 * r3 * rd.drDx,
		4 * r3 * rd.drDy,
		4*r3*rd.drDz + 2*a2*z,
	}
	for i := 0; i < 3; i++ {
		nv.df[i] = (dN[i]*nv.den - 2*g.M*r3*dDen[i]) / (nv.den * nv.den)
	}

	return nv
}

// raisedNull raises a covariant null-vector component list (with
// l_t == 1) to contravariant form using eta: l^t = -l_t, l^i = l_i.
func raisedNull(l vecmat.Vec4) vecmat.Vec4 {
	return vecmat.Vec4From(-l[0], l[1], l[2], l[3])
}

// Covariant returns g_{mu nu} at (x,y,z): eta + f * l_mu l_nu.
func (g Geometry) Covariant(x, y, z float64) vecmat.Mat4 {
	if g.Flat {
		return eta
	}
	rd := g.radial(x, y, z)
	nv := g.nullVectorAt(x, y, z, rd)
	out := eta
	for mu := 0; mu < 4; mu++ {
		for nu := 0; nu < 4; nu++ {
			out.Set(mu, nu, out.At(mu, nu)+nv.f*nv.l[mu]*nv.l[nu])
		}
	}
	return out
}

// Contravariant returns g^{mu nu} at (x,y,z): eta - f * l^mu l^nu.
func (g Geometry) Contravariant(x, y, z float64) vecmat.Mat4 {
	if g.Flat {
		return eta
	}
	rd := g.radial(x, y, z)
	nv := g.nullVectorAt(x, y, z, rd)
	lUp := raisedNull(nv.l)
	out := eta
	for mu := 0; mu < 4; mu++ {
		for nu := 0; nu < 4; nu++ {
			out.Set(mu, nu, out.At(mu, nu)-nv.f*lUp[mu]*lUp[nu])
		}
	}
	return out
}

// ContravariantDerivative returns the 64-entry tensor ∂_alpha g^{mu nu}
// (alpha = t,x,y,z; alpha=t is always zero since the metric is stationary).
func (g Geometry) ContravariantDerivative(x, y, z float64) vecmat.Ten4 {
	var out vecmat.Ten4
	if g.Flat {
		return out
	}
	rd := g.radial(x, y, z)
	nv := g.nullVectorAt(x, y, z, rd)
	lUp := raisedNull(nv.l)

	for a := 0; a < 3; a++ { // alpha = x,y,z -> tensor index 1,2,3
		dlUp := raisedNull(nv.dl[a])
		for mu := 0; mu < 4; mu++ {
			for nu := 0; nu < 4; nu++ {
				val := -nv.df[a]*lUp[mu]*lUp[nu] -
					nv.f*dlUp[mu]*lUp[nu] -
					nv.f*lUp[mu]*dlUp[nu]
				out.Set(mu, nu, a+1, val)
			}
		}
	}
	return out
}

// NullResidual evaluates g^{mu nu} k_mu k_nu, used to check the null
// condition (spec.md 8, property 1).
func (g Geometry) NullResidual(x, y, z float64, k vecmat.Vec4) float64 {
	return g.Contravariant(x, y, z).QuadForm(k)
}
