package sampler

import (
	"testing"

	"github.com/blacklight-gr/blacklight/pkg/geodesic"
	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/vecmat"
)

func TestSamplesCountAndMidpoints(t *testing.T) {
	geo := metric.New(1.0, 0.9, false)
	ray := &geodesic.Ray{
		Lambda:   []float64{0, 1, 2},
		Pos:      []vecmat.Vec3{{20, 0, 0}, {15, 0, 0}, {10, 0, 0}},
		Mom:      []vecmat.Vec4{{-1, -1, 0, 0}, {-1, -1, 0, 0}, {-1, -1, 0, 0}},
		NumSteps: 3,
	}

	samples := Samples(geo, ray)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples from a 3-step ray, got %d", len(samples))
	}
	if samples[0].Pos[0] != 17.5 {
		t.Fatalf("expected first midpoint x=17.5, got %g", samples[0].Pos[0])
	}
	if samples[0].DLam != 1 {
		t.Fatalf("expected DLam=1, got %g", samples[0].DLam)
	}
}

func TestSamplesClipsInsideHorizon(t *testing.T) {
	geo := metric.New(1.0, 0.9, false)
	h := geo.HorizonR
	ray := &geodesic.Ray{
		Lambda:   []float64{0, 1, 2, 3},
		Pos:      []vecmat.Vec3{{10, 0, 0}, {h * 3, 0, 0}, {h * 0.5, 0, 0}, {h * 0.1, 0, 0}},
		Mom:      []vecmat.Vec4{{-1, -1, 0, 0}, {-1, -1, 0, 0}, {-1, -1, 0, 0}, {-1, -1, 0, 0}},
		NumSteps: 4,
	}

	// Midpoints: x=7.15 (r~7.10) and x=2.51 (r~2.35) lie outside
	// r_+~1.44; x=0.43 gives r=0, inside the horizon.
	samples := Samples(geo, ray)
	if len(samples) != 2 {
		t.Fatalf("expected clipping at the horizon to leave 2 samples, got %d", len(samples))
	}
}

func TestSamplesEmptyForShortRay(t *testing.T) {
	geo := metric.New(1.0, 0.9, false)
	ray := &geodesic.Ray{NumSteps: 1, Lambda: []float64{0}, Pos: []vecmat.Vec3{{1, 0, 0}}, Mom: []vecmat.Vec4{{-1, -1, 0, 0}}}
	if s := Samples(geo, ray); s != nil {
		t.Fatalf("expected nil samples for a ray with <2 steps, got %v", s)
	}
}
