package geodesic

import (
	"math"

	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

// Params bundles the adaptive-stepper tolerances and termination knobs a
// ray integration run is configured with, named after the original
// geodesic_integrator.hpp / radiation_integrator input fields they
// mirror.
type Params struct {
	StepInitial float64 // ray_step, the initial step size at the camera
	TolAbs      float64 // ray_tol_abs
	TolRel      float64 // ray_tol_rel
	MinFactor   float64 // ray_min_factor
	MaxFactor   float64 // ray_max_factor
	ErrFactor   float64 // ray_err_factor
	MaxRetries  int     // ray_max_retries
	MaxSteps    int     // ray_max_steps
	RTerminate  float64 // r_terminate
	EpsHorizon  float64 // epsilon in r <= r_+ (1+eps_horizon)
}

// zTurningMinStride is the minimum step count between z-turning counts,
// matched to the original constant until proven otherwise (spec.md 9, Open
// Questions).
const zTurningMinStride = 10

// Integrate runs the adaptive Dormand-Prince integrator on geo starting
// from y0, from the camera outward (backward along the photon's actual
// direction of travel), until a termination predicate fires or the ray is
// flagged. The returned Ray is stored in the camera-outward order produced
// during integration; callers that need source-to-camera order (for
// radiative transfer) must call Reverse.
func Integrate(geo metric.Geometry, y0 State, p Params) *Ray {
	f := func(y State) State { return rhs(geo, y) }

	ray := &Ray{
		Lambda: []float64{y0.Lambda()},
		Pos:    []vecmat.Vec3{y0.Pos()},
		Mom:    []vecmat.Vec4{y0.Mom()},
	}

	y := y0
	h := p.StepInitial
	lastK0 := y0.Mom()[0]
	zTurnings := 0
	lastTurnStep := 0
	lastDz := 0.0

	for step := 0; step < p.MaxSteps; step++ {
		accepted := false
		retries := 0

		for !accepted {
			yNew, errEst := dopri5Step(f, y, h)
			e := scaledErrorNorm(y, yNew, errEst, p.TolAbs, p.TolRel)

			if e <= 1 {
				accepted = true
				factor := p.ErrFactor
				if e > 0 {
					factor = p.ErrFactor * math.Pow(e, -0.2)
				}
				if factor > p.MaxFactor {
					factor = p.MaxFactor
				}
				if factor < p.MinFactor {
					factor = p.MinFactor
				}
				y = yNew
				h = h * factor
				continue
			}

			retries++
			if retries > p.MaxRetries {
				ray.Flag |= FlagRetriesExhausted
				ray.NumSteps = len(ray.Lambda)
				return ray
			}
			factor := p.ErrFactor * math.Pow(e, -0.2)
			if factor < p.MinFactor {
				factor = p.MinFactor
			}
			if factor > 1 {
				factor = 1 // a rejected step may not grow
			}
			h = h * factor
		}

		if !isFinite(y) {
			ray.Flag |= FlagNonFinite
			ray.NumSteps = len(ray.Lambda)
			return ray
		}

		ray.Lambda = append(ray.Lambda, y.Lambda())
		ray.Pos = append(ray.Pos, y.Pos())
		ray.Mom = append(ray.Mom, y.Mom())

		k0 := y.Mom()[0]
		if math.Signbit(k0) != math.Signbit(lastK0) && k0 != 0 && lastK0 != 0 {
			ray.Flag |= FlagMomentumSignFlip
			ray.NumSteps = len(ray.Lambda)
			return ray
		}
		lastK0 = k0

		dz := y.Pos()[2] - ray.Pos[len(ray.Pos)-2][2]
		if dz*lastDz < 0 && step-lastTurnStep >= zTurningMinStride {
			lastTurnStep = step
			zTurnings++
		}
		if dz != 0 {
			lastDz = dz
		}

		r := geo.RadialCoordinate(y.Pos()[0], y.Pos()[1], y.Pos()[2])
		switch {
		case r <= geo.HorizonR*(1+p.EpsHorizon):
			ray.Outcome = Swallowed
			ray.NumSteps = len(ray.Lambda)
			return ray
		case r >= p.RTerminate:
			ray.Outcome = Escaped
			ray.NumSteps = len(ray.Lambda)
			return ray
		}
	}

	ray.Flag |= FlagMaxStepsExceeded
	ray.NumSteps = len(ray.Lambda)
	return ray
}

func isFinite(y State) bool {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Reverse returns a copy of r with its step order reversed (front to back
// along the photon's direction of propagation becomes source-to-camera)
// and the covariant momentum negated, per spec.md 4.C: "the trajectory is
// reversed ... because transfer is accumulated from source to camera."
func (r *Ray) Reverse() *Ray {
	n := len(r.Lambda)
	out := &Ray{
		Lambda:   make([]float64, n),
		Pos:      make([]vecmat.Vec3, n),
		Mom:      make([]vecmat.Vec4, n),
		NumSteps: r.NumSteps,
		Flag:     r.Flag,
		Outcome:  r.Outcome,
	}
	for i := 0; i < n; i++ {
		j := n - 1 - i
		out.Lambda[i] = r.Lambda[j]
		out.Pos[i] = r.Pos[j]
		out.Mom[i] = r.Mom[j].Mul(-1)
	}
	return out
}
