// Package camera builds the observer's orthonormal tetrad at the camera
// position and shoots per-pixel initial photon states (position +
// covariant momentum) for the geodesic integrator, per spec.md 4.B.
//
// Grounded on scene/camera.go's shape (a Camera struct holding a
// precomputed basis, a Build/Update step, and per-ray accessors analogous
// to its frustum-corner rays) generalized from a flat perspective camera
// to an orthonormal tetrad anchored in curved Kerr-Schild space.
package camera

import (
	"math"

	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

// Type selects the pixel-ray generation model (spec.md 4.B).
type Type uint8

const (
	// Plane: every pixel shares direction n-hat; rays start with a
	// transverse (u,v) offset in the camera plane and are initially
	// parallel.
	Plane Type = iota
	// Pinhole: every ray emanates from the same camera position with
	// direction n-hat + u*h-hat + v*v-hat, renormalized to null.
	Pinhole
)

// Config holds the camera input parameters, named after the
// geodesic_integrator.hpp fields they mirror.
type Config struct {
	Type Type

	// Camera position in Boyer-Lindquist-like spherical coordinates.
	R, Th, Ph float64

	// Observer's local 3-velocity, expressed as coefficients in the
	// camera's own orthonormal spatial triad (camera_urn/uthn/uphn).
	Urn, Uthn, Uphn float64

	// Look direction, expressed as coefficients in the same orthonormal
	// triad (camera_k_r/k_th/k_ph), need not be unit (normalized here).
	KR, KTh, KPh float64

	Rotation   float64 // camera_rotation: roll around the look axis, radians
	Width      float64 // camera_width: physical width of the image plane
	Resolution int     // camera_resolution: R, pixels per side
	Pole       bool    // camera_pole: polar-singularity azimuth fix-up
}

// poleEpsilon bounds how close to the spin axis (sin(theta) ~ 0) the
// camera may sit before the azimuthal coordinate degenerates.
const poleEpsilon = 1e-6

// Camera is the built tetrad: a position, an orthonormal spatial triad
// (look/horizontal/vertical), and the observer's four-velocity, ready to
// shoot per-pixel rays.
type Camera struct {
	Geo metric.Geometry
	Cfg Config

	X vecmat.Vec3 // cam_x: Kerr-Schild Cartesian camera position

	N, H, V legLeg // look, horizontal, vertical tetrad legs (contravariant + covariant)

	U    vecmat.Vec4 // u^mu: observer four-velocity, contravariant
	UCov vecmat.Vec4 // u_mu: observer four-velocity, covariant

	NumPix int // camera_num_pix = Resolution^2
}

// legLeg stores one tetrad leg in both contravariant (coordinate-basis
// direction) and covariant (index-lowered) form, since pixel generation
// needs the covariant components for k_mu but the contravariant ones to
// build the observer's four-velocity.
type legLeg struct {
	con vecmat.Vec3
	cov vecmat.Vec3
}

// Build constructs the camera tetrad for the given geometry and config.
func Build(geo metric.Geometry, cfg Config) *Camera {
	ph := cfg.Ph
	sinTh := math.Sin(cfg.Th)
	if cfg.Pole && math.Abs(sinTh) < poleEpsilon {
		// At the spin axis any azimuth describes the same point; nudge it
		// off the configured value so the phi coordinate basis vector
		// (which carries a sin(theta) factor and vanishes exactly on
		// axis) still has a well-defined direction to normalize.
		ph += poleEpsilon
	}

	x := ksCartesian(geo.A, cfg.R, cfg.Th, ph)
	eR, eTh, ePh := coordinateBasis(geo.A, cfg.R, cfg.Th, ph)

	gcov := geo.Covariant(x[0], x[1], x[2])
	o0, o1, o2 := orthonormalTriad(gcov, eR, eTh, ePh)

	lowerSpatial := func(v vecmat.Vec3) vecmat.Vec3 {
		var out vecmat.Vec3
		for i := 0; i < 3; i++ {
			var sum float64
			for j := 0; j < 3; j++ {
				sum += gcov.At(i+1, j+1) * v[j]
			}
			out[i] = sum
		}
		return out
	}

	toCoordinate := func(coef vecmat.Vec3) legLeg {
		con := o0.Mul(coef[0]).Add(o1.Mul(coef[1])).Add(o2.Mul(coef[2]))
		return legLeg{con: con, cov: lowerSpatial(con)}
	}

	nCoef := vecmat.Vec3{cfg.KR, cfg.KTh, cfg.KPh}.Normalize()
	n := toCoordinate(nCoef)

	// Build a horizontal leg orthogonal to n (Euclidean Gram-Schmidt in
	// tetrad-coefficient space, valid since o0,o1,o2 are g-orthonormal).
	hCoef := vecmat.Vec3{1, 0, 0}
	if math.Abs(nCoef[0]) > 0.9 {
		hCoef = vecmat.Vec3{0, 1, 0}
	}
	hCoef = hCoef.Sub(nCoef.Mul(hCoef.Dot(nCoef))).Normalize()
	vCoef := nCoef.Cross(hCoef)

	if cfg.Rotation != 0 {
		q := vecmat.QuatFromAxisAngle(nCoef, cfg.Rotation)
		hCoef = q.Rotate(hCoef)
		vCoef = q.Rotate(vCoef)
	}

	h := toCoordinate(hCoef)
	v := toCoordinate(vCoef)

	u, uCov := observerVelocity(geo, gcov, x, cfg, o0, o1, o2)

	return &Camera{
		Geo:    geo,
		Cfg:    cfg,
		X:      x,
		N:      n,
		H:      h,
		V:      v,
		U:      u,
		UCov:   uCov,
		NumPix: cfg.Resolution * cfg.Resolution,
	}
}

// ksCartesian converts Boyer-Lindquist-like spherical coordinates to
// Kerr-Schild Cartesian position: x+iy = (r+ia) sin(theta) e^{i phi},
// z = r cos(theta). This is the standard closed-form BL<->KS spatial
// transform, consistent with pkg/metric's radial coordinate (substituting
// back into its defining quartic reduces identically to zero).
func ksCartesian(a, r, th, ph float64) vecmat.Vec3 {
	sinTh, cosTh := math.Sin(th), math.Cos(th)
	sinPh, cosPh := math.Sin(ph), math.Cos(ph)
	return vecmat.Vec3{
		sinTh * (r*cosPh - a*sinPh),
		sinTh * (r*sinPh + a*cosPh),
		r * cosTh,
	}
}

// coordinateBasis returns the partial derivatives of ksCartesian with
// respect to r, theta, phi: the (non-orthonormal) coordinate basis
// vectors at the camera position.
func coordinateBasis(a, r, th, ph float64) (eR, eTh, ePh vecmat.Vec3) {
	sinTh, cosTh := math.Sin(th), math.Cos(th)
	sinPh, cosPh := math.Sin(ph), math.Cos(ph)

	eR = vecmat.Vec3{sinTh * cosPh, sinTh * sinPh, cosTh}
	eTh = vecmat.Vec3{
		cosTh * (r*cosPh - a*sinPh),
		cosTh * (r*sinPh + a*cosPh),
		-r * sinTh,
	}
	ePh = vecmat.Vec3{
		-sinTh * (r*sinPh + a*cosPh),
		sinTh * (r*cosPh - a*sinPh),
		0,
	}
	return eR, eTh, ePh
}

// orthonormalTriad Gram-Schmidt-orthonormalizes the coordinate basis under
// the inner product <a,b> = g_ij a^i b^j, producing a right-handed,
// g-orthonormal contravariant spatial triad.
func orthonormalTriad(gcov vecmat.Mat4, eR, eTh, ePh vecmat.Vec3) (o0, o1, o2 vecmat.Vec3) {
	inner := func(a, b vecmat.Vec3) float64 {
		var sum float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				sum += gcov.At(i+1, j+1) * a[i] * b[j]
			}
		}
		return sum
	}
	normalize := func(v vecmat.Vec3) vecmat.Vec3 {
		n := math.Sqrt(inner(v, v))
		if n < 1e-300 {
			return v
		}
		return v.Mul(1 / n)
	}

	o0 = normalize(eR)
	t1 := eTh.Sub(o0.Mul(inner(eTh, o0)))
	o1 = normalize(t1)
	t2 := ePh.Sub(o0.Mul(inner(ePh, o0))).Sub(o1.Mul(inner(ePh, o1)))
	o2 = normalize(t2)
	return o0, o1, o2
}

// observerVelocity builds the observer's four-velocity from its local
// 3-velocity (Urn,Uthn,Uphn), capping the Euclidean speed below 1 and
// solving g_mu-nu u^mu u^nu = -1 for the time component.
func observerVelocity(geo metric.Geometry, gcov vecmat.Mat4, x vecmat.Vec3, cfg Config, o0, o1, o2 vecmat.Vec3) (vecmat.Vec4, vecmat.Vec4) {
	v := vecmat.Vec3{cfg.Urn, cfg.Uthn, cfg.Uphn}
	speed2 := v.Dot(v)
	const maxSpeed2 = 1 - 1e-8
	if speed2 >= maxSpeed2 {
		v = v.Mul(math.Sqrt(maxSpeed2 / speed2))
		speed2 = maxSpeed2
	}
	gamma := 1 / math.Sqrt(1-speed2)

	uSpatial := o0.Mul(gamma * v[0]).Add(o1.Mul(gamma * v[1])).Add(o2.Mul(gamma * v[2]))

	// g_00 (u^0)^2 + 2 u^0 (g_0i u^i) + g_ij u^i u^j + 1 = 0.
	a := gcov.At(0, 0)
	var b, c float64
	for i := 0; i < 3; i++ {
		b += 2 * gcov.At(0, i+1) * uSpatial[i]
		for j := 0; j < 3; j++ {
			c += gcov.At(i+1, j+1) * uSpatial[i] * uSpatial[j]
		}
	}
	c += 1
	disc := b*b - 4*a*c
	if disc < 0 {
		disc = 0
	}
	u0 := (-b + math.Sqrt(disc)) / (2 * a)
	if u0 < 0 {
		u0 = (-b - math.Sqrt(disc)) / (2 * a)
	}

	u := vecmat.Vec4From(u0, uSpatial[0], uSpatial[1], uSpatial[2])
	uCov := gcov.MulVec4(u)
	return u, uCov
}

// pixelCoord maps a tile-local pixel index (i,j) in [0,resolution) to
// centered (u,v) in [-width/2, width/2], per spec.md 4.B ("centered on the
// unit square of a tile and scaled by camera_width").
func pixelCoord(i, j, resolution int, width float64) (u, v float64) {
	n := float64(resolution)
	fu := (float64(i)+0.5)/n - 0.5
	fv := (float64(j)+0.5)/n - 0.5
	return fu * width, fv * width
}

// Shoot returns the initial position and covariant momentum for pixel
// (i,j) of a resolution x resolution tile, per the camera's configured
// pixel model.
func (c *Camera) Shoot(i, j, resolution int) (pos vecmat.Vec3, k vecmat.Vec4) {
	u, v := pixelCoord(i, j, resolution, c.Cfg.Width)

	switch c.Cfg.Type {
	case Pinhole:
		dirCov := c.N.cov.Add(c.H.cov.Mul(u)).Add(c.V.cov.Mul(v))
		return c.X, c.nullMomentum(c.X, dirCov)

	default: // Plane
		offset := c.H.con.Mul(u).Add(c.V.con.Mul(v))
		pos = c.X.Add(offset)
		return pos, c.nullMomentum(pos, c.N.cov)
	}
}

// nullMomentum solves for k_0 given the spatial covariant momentum
// components dirCov, following the same quadratic used throughout
// pkg/geodesic's test fixtures: g^{mu nu} k_mu k_nu = 0 solved for k_0.
func (c *Camera) nullMomentum(pos vecmat.Vec3, dirCov vecmat.Vec3) vecmat.Vec4 {
	gcon := c.Geo.Contravariant(pos[0], pos[1], pos[2])
	kCov := vecmat.Vec4From(0, dirCov[0], dirCov[1], dirCov[2])

	a := gcon.At(0, 0)
	var b, cc float64
	for i := 1; i < 4; i++ {
		b += 2 * gcon.At(0, i) * kCov[i]
		for j := 1; j < 4; j++ {
			cc += gcon.At(i, j) * kCov[i] * kCov[j]
		}
	}
	disc := b*b - 4*a*cc
	if disc < 0 {
		disc = 0
	}
	// Root (-b - sqrt(disc))/(2a): with g^{00} < 0 outside the horizon this
	// gives k_0 > 0, so the ray traced from the camera toward the source
	// runs backward in coordinate time; geodesic.Ray.Reverse negates it.
	k0 := (-b - math.Sqrt(disc)) / (2 * a)
	return vecmat.Vec4From(k0, dirCov[0], dirCov[1], dirCov[2])
}
