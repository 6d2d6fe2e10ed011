package transfer

import (
	"math"

	"github.com/blacklight-gr/blacklight/pkg/sampler"
)

// ParallelTransportAngle approximates the rotation of the polarization
// screen basis induced by parallel-transporting it along the photon
// trajectory between two consecutive samples.
//
// The exact treatment tracks the Walker-Penrose constant through the
// Kerr Killing-Yano tensor and is not reproduced here: no camera- or
// polarization-basis source survived into the retrieval pack to ground
// that derivation (see DESIGN.md). Instead this uses the standard
// holonomy of parallel transport around a cone of half-angle theta: a
// closed azimuthal loop rotates a transported vector by
// Delta(phi) * (1 - cos(theta)). Applied incrementally between samples
// this gives a smoothly varying proxy rotation that vanishes for purely
// radial motion (no change in phi) and, for a given change in phi, scales
// with (1 - cos(theta)): zero at the +z axis, dPhi on the equatorial
// plane, and 2*dPhi at the -z axis.
func ParallelTransportAngle(prev, next sampler.Sample) float64 {
	thetaPrev := math.Atan2(math.Hypot(prev.Pos[0], prev.Pos[1]), prev.Pos[2])
	thetaNext := math.Atan2(math.Hypot(next.Pos[0], next.Pos[1]), next.Pos[2])
	phiPrev := math.Atan2(prev.Pos[1], prev.Pos[0])
	phiNext := math.Atan2(next.Pos[1], next.Pos[0])

	dPhi := phiNext - phiPrev
	switch {
	case dPhi > math.Pi:
		dPhi -= 2 * math.Pi
	case dPhi < -math.Pi:
		dPhi += 2 * math.Pi
	}
	theta := 0.5 * (thetaPrev + thetaNext)
	return dPhi * (1 - math.Cos(theta))
}

// RotateBasis rotates the Q,U plane of s by angle (radians of position
// angle on the sky), leaving I and V unchanged: Stokes Q,U transform
// under a rotation of the polarization reference axis by chi as
// Q' = Q cos(2 chi) + U sin(2 chi), U' = -Q sin(2 chi) + U cos(2 chi).
func RotateBasis(s Stokes, angle float64) Stokes {
	c, si := math.Cos(2*angle), math.Sin(2*angle)
	return Stokes{
		s[0],
		s[1]*c + s[2]*si,
		-s[1]*si + s[2]*c,
		s[3],
	}
}
