package transfer

import "github.com/blacklight-gr/blacklight/pkg/vecmat"

// RedshiftFactor returns (k.u)_emit / (k.u)_cam, the factor both transfer
// variants use to convert the observed (camera-frame) frequency to the
// fluid-frame frequency the coefficient binder needs, per spec.md 4.F.
// kEmit/uEmit are the covariant photon momentum and the fluid's
// contravariant four-velocity at the emission sample; kCam/uCam are the
// same pair at the camera.
func RedshiftFactor(kEmit vecmat.Vec4, uEmit vecmat.Vec4, kCam vecmat.Vec4, uCam vecmat.Vec4) float64 {
	return dotCovCon(kEmit, uEmit) / dotCovCon(kCam, uCam)
}

func dotCovCon(kCov, uCon vecmat.Vec4) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		sum += kCov[i] * uCon[i]
	}
	return sum
}
