// Package render is the top-level runner tying the camera, geodesic,
// sampler, coefficient, transfer, adaptive, and pyramid stages together
// into the per-frame data flow of spec.md 2 and 4.
//
// Grounded on renderer/render.go's shape (a Renderer wrapping a scene,
// a scheduler, and a Render(frameIdx) entry point) and cmd/render.go's
// frame-statistics table, generalized from one GPU-tracer dispatch per
// frame to one workpool-driven parallel-for per pyramid level.
package render

import (
	"math"
	"time"

	"github.com/blacklight-gr/blacklight/log"
	"github.com/blacklight-gr/blacklight/pkg/adaptive"
	"github.com/blacklight-gr/blacklight/pkg/camera"
	"github.com/blacklight-gr/blacklight/pkg/coefficients"
	"github.com/blacklight-gr/blacklight/pkg/geodesic"
	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/pyramid"
	"github.com/blacklight-gr/blacklight/pkg/sampler"
	"github.com/blacklight-gr/blacklight/pkg/transfer"
	"github.com/blacklight-gr/blacklight/pkg/workpool"
)

var logger = log.New("render")

// Channel selects which of spec.md 6's image-selection outputs a pixel
// result reports; only the ones a Config.Images field asked for are
// populated, the rest stay zero.
type Channel struct {
	I        float64 // image_light: unpolarized or Stokes-I intensity
	Time     float64 // image_time: affine parameter at the far end of the integrated ray
	Length   float64 // image_length: accumulated path length
	LambdaSum float64 // image_lambda: same as Time, named separately for clarity
	Emission float64 // image_emission: integrated j_I
	Tau      float64 // image_tau: total optical depth
	LambdaAve float64 // image_lambda_ave: tau-weighted mean radial coordinate r of the samples
	EmissionAve float64 // image_emission_ave: integrated j_I divided by tau
	TauInt   float64 // image_tau_int: same as Tau, kept distinct per spec naming
	Q, U, V  float64 // populated only when Polarization is set
	Flagged  bool
}

// Images selects which channels to populate, mirroring
// config.ImageSelection without importing pkg/config (keeps render
// independent of the input-reader's option names).
type Images struct {
	Light, Time, Length, Lambda, Emission, Tau, LambdaAve, EmissionAve, TauInt bool
	Polarization bool
}

// Params bundles everything a render needs that isn't owned by the
// Renderer itself: per-run tolerances, fallback policy, and the image
// selection.
type Params struct {
	Geodesic geodesic.Params
	Fallback coefficients.FallbackPolicy
	Images   Images
	Adaptive adaptive.Params
	CameraNu float64 // observed frequency for the coefficient binder
}

// Renderer owns the read-only, construction-time state shared by every
// worker: the spacetime geometry, the built camera tetrad, the
// coefficient source, and the worker pool. Per spec.md 5, everything
// here is read-only once Run begins.
type Renderer struct {
	Geo    metric.Geometry
	Cam    *camera.Camera
	Source coefficients.Source
	Pool   *workpool.Pool
	Params Params
}

// New builds a Renderer with a fixed-size pool of numThreads workers
// (spec.md 5: "the number of workers is fixed at construction").
func New(geo metric.Geometry, cam *camera.Camera, src coefficients.Source, numThreads int, p Params) *Renderer {
	return &Renderer{
		Geo:    geo,
		Cam:    cam,
		Source: src,
		Pool:   workpool.New(numThreads),
		Params: p,
	}
}

// renderPixel runs components C through F for one pixel at the given
// resolution, returning its Channel outputs. It never returns an error:
// per-ray failures are recorded via Channel.Flagged and, when
// fallback_nan applies, NaN channel values, per spec.md 7's
// "recoverable per-ray failures never abort the job".
func (r *Renderer) renderPixel(i, j, resolution int) Channel {
	pos, k := r.Cam.Shoot(i, j, resolution)
	y0 := geodesic.NewState(pos, k, 0)

	ray := geodesic.Integrate(r.Geo, y0, r.Params.Geodesic)
	if ray.Flag.Flagged() {
		if r.Params.Fallback.NaN {
			return Channel{I: math.NaN(), Flagged: true}
		}
		return Channel{Flagged: true}
	}

	samples := sampler.Samples(r.Geo, ray.Reverse())
	if len(samples) == 0 {
		return Channel{}
	}

	coeffs := make([]coefficients.Set, len(samples))
	for n, s := range samples {
		cs := coefficients.Sample{
			X: s.Pos[0], Y: s.Pos[1], Z: s.Pos[2],
			K0: s.Mom[0], K1: s.Mom[1], K2: s.Mom[2], K3: s.Mom[3],
		}
		coeffs[n] = coefficients.Bind(r.Source, cs, r.Params.CameraNu, r.Params.Fallback)
	}

	out := Channel{}
	if r.Params.Images.Polarization {
		out = r.transferPolarized(samples, coeffs)
	} else {
		out = r.transferUnpolarized(samples, coeffs)
	}

	if r.Params.Images.Time || r.Params.Images.Lambda {
		out.Time = ray.Lambda[ray.NumSteps-1]
		out.LambdaSum = out.Time
	}
	return out
}

func (r *Renderer) transferUnpolarized(samples []sampler.Sample, coeffs []coefficients.Set) Channel {
	// "radius" is the one fluid-adjacent quantity the sample itself
	// carries (cached from pkg/metric's radial solve); it stands in for
	// the tau-weighted lambda_ave diagnostic. emission_ave is computed
	// directly from the running integrals since DiagnosticFunc only
	// sees the sample, not the coefficient set that produced j_I.
	diag := map[string]transfer.DiagnosticFunc{
		"radius": func(s sampler.Sample) float64 { return s.R },
	}
	res := transfer.Unpolarized(samples, coeffs, diag)
	out := Channel{
		I:        res.I,
		Length:   res.PathLength,
		Emission: res.JIntegral,
		Tau:      res.Tau,
		TauInt:   res.Tau,
	}
	if res.Tau != 0 {
		out.EmissionAve = res.JIntegral / res.Tau
	}
	if mean, ok := res.WeightedMean("radius"); ok {
		out.LambdaAve = mean
	}
	return out
}

func (r *Renderer) transferPolarized(samples []sampler.Sample, coeffs []coefficients.Set) Channel {
	s := transfer.Stokes{}
	var tau, pathLen float64
	for n := range samples {
		if n > 0 {
			angle := transfer.ParallelTransportAngle(samples[n-1], samples[n])
			s = transfer.RotateBasis(s, angle)
			pathLen += samples[n].Pos.Sub(samples[n-1].Pos).Len()
		}
		s = transfer.Step(s, coeffs[n], samples[n].DLam)
		tau += coeffs[n].AlphaI * math.Abs(samples[n].DLam)
	}
	return Channel{I: s[0], Q: s[1], U: s[2], V: s[3], Tau: tau, TauInt: tau, Length: pathLen}
}

// Frame holds the assembled pyramid for one rendered image, plus the
// per-level render statistics.
type Frame struct {
	Pyramid  *pyramid.Pyramid
	Stats    Stats
}

// Stats accumulates the driver-thread-only phase timers of spec.md 5
// ("races on the totals are avoided by tallying only from the driver
// thread").
type Stats struct {
	LevelPixels []int
	LevelMillis []int64
}

// Run executes the full adaptive render described by spec.md 4.G/4.H:
// level 0 covers the whole image at the configured resolution; each
// subsequent level re-renders only the tiles ShouldRefine flagged, at
// double the previous level's effective pixel resolution (each level-L
// tile covers a quarter of its parent's footprint with block x block
// pixels of an image sampled at resolution*2^L), until adaptive.Done
// reports convergence or MaxLevel is reached.
func (r *Renderer) Run(resolution, block int) *Frame {
	p := pyramid.New(resolution, block)
	frame := &Frame{Pyramid: p}

	tilesPerSide := resolution / block
	flagged := make([]bool, tilesPerSide*tilesPerSide)
	for i := range flagged {
		flagged[i] = true // every level-0 tile is always rendered
	}

	level := 0
	for {
		start := time.Now()
		r.renderLevel(p, level, resolution, block, flagged)
		frame.Stats.LevelPixels = append(frame.Stats.LevelPixels, countFlagged(flagged)*block*block)
		frame.Stats.LevelMillis = append(frame.Stats.LevelMillis, time.Since(start).Nanoseconds()/1e6)

		tps := tilesPerSide << uint(level)
		next := make([]bool, 4*tps*tps)
		anyFlagged := false
		for ty := 0; ty < tps; ty++ {
			for tx := 0; tx < tps; tx++ {
				if !flagged[ty*tps+tx] {
					continue
				}
				tile, ok := p.Get(pyramid.TileID{Level: level, X: tx, Y: ty})
				if !ok {
					continue
				}
				if adaptive.ShouldRefine(adaptive.Tile{B: tile.B, Values: tile.Values}, r.Params.Adaptive) {
					for _, c := range (pyramid.TileID{Level: level, X: tx, Y: ty}).Children() {
						next[c.Y*2*tps+c.X] = true
					}
					anyFlagged = true
				}
			}
		}

		var doneCheck []bool
		if anyFlagged {
			doneCheck = next
		}
		if adaptive.Done(level, r.Params.Adaptive, doneCheck) {
			break
		}
		level++
		flagged = next
	}

	logger.Noticef("rendered %d level(s) at base resolution %d", level+1, resolution)
	return frame
}

func countFlagged(flagged []bool) int {
	n := 0
	for _, f := range flagged {
		if f {
			n++
		}
	}
	return n
}

// renderLevel fills every flagged tile at level with a block x block
// render at the level's effective resolution (resolution << level),
// dispatched pixel-by-pixel across the worker pool.
func (r *Renderer) renderLevel(p *pyramid.Pyramid, level, resolution, block int, flagged []bool) {
	effRes := resolution << uint(level)
	tps := effRes / block
	for ty := 0; ty < tps; ty++ {
		for tx := 0; tx < tps; tx++ {
			if !flagged[ty*tps+tx] {
				continue
			}
			values := make([]float64, block*block)
			tx, ty := tx, ty
			r.Pool.ParallelFor(block*block, func(n int) {
				py := n / block
				px := n % block
				i := tx*block + px
				j := ty*block + py
				values[n] = r.renderPixel(i, j, effRes).I
			})
			p.Set(pyramid.TileID{Level: level, X: tx, Y: ty}, &pyramid.Tile{B: block, Values: values})
		}
	}
}
