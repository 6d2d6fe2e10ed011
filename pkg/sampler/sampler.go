// Package sampler turns an integrated geodesic (pkg/geodesic.Ray) into the
// midpoint samples consumed by the coefficient binder and radiative
// transfer stages, per spec.md 4.D.
package sampler

import (
	"github.com/blacklight-gr/blacklight/pkg/geodesic"
	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

// Sample is one midpoint sample: the linearly-interpolated midpoint
// position and covariant momentum between two consecutive integrator
// steps, the affine-parameter step between them, and the resolved radial
// coordinate (cached so downstream stages never re-solve the quartic).
type Sample struct {
	Pos  vecmat.Vec3
	Mom  vecmat.Vec4
	DLam float64
	R    float64
}

// Samples builds N_m = ray.NumSteps-1 midpoint samples from a ray already
// in source-to-camera order (i.e. after geodesic.Ray.Reverse). Samples
// whose midpoint falls inside the horizon are dropped and the returned
// slice is shorter than NumSteps-1, matching spec.md 4.D's "when a sample
// falls inside the horizon, the sampler clips the ray and decreases N_m."
func Samples(geo metric.Geometry, ray *geodesic.Ray) []Sample {
	if ray.NumSteps < 2 {
		return nil
	}

	out := make([]Sample, 0, ray.NumSteps-1)
	for m := 0; m < ray.NumSteps-1; m++ {
		x0, x1 := ray.Pos[m], ray.Pos[m+1]
		k0, k1 := ray.Mom[m], ray.Mom[m+1]
		lam0, lam1 := ray.Lambda[m], ray.Lambda[m+1]

		xMid := x0.Add(x1).Mul(0.5)
		kMid := k0.Add(k1).Mul(0.5)
		r := geo.RadialCoordinate(xMid[0], xMid[1], xMid[2])

		if r <= geo.HorizonR {
			// In source-to-camera order the inside-horizon midpoints of
			// a swallowed ray come first; drop each one and keep the
			// samples further along toward the camera.
			continue
		}

		out = append(out, Sample{
			Pos:  xMid,
			Mom:  kMid,
			DLam: lam1 - lam0,
			R:    r,
		})
	}
	return out
}
