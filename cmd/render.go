package cmd

import (
	"bytes"
	"errors"

	"github.com/blacklight-gr/blacklight/pkg/adaptive"
	"github.com/blacklight-gr/blacklight/pkg/camera"
	"github.com/blacklight-gr/blacklight/pkg/coefficients"
	"github.com/blacklight-gr/blacklight/pkg/config"
	"github.com/blacklight-gr/blacklight/pkg/geodesic"
	"github.com/blacklight-gr/blacklight/pkg/metric"
	"github.com/blacklight-gr/blacklight/pkg/render"
	"github.com/urfave/cli"
)

// errSimulationModelUnsupported is returned when a config selects the
// simulation model: it requires the athena_reader simulation-snapshot
// collaborator, which spec.md 1 treats as external and which has no
// grounding source in this build (see DESIGN.md).
var errSimulationModelUnsupported = errors.New("simulation model requires an external simulation-snapshot reader, not available in this build")

// Render implements the driver contract of spec.md 6: exactly one
// positional argument, the path to an input file; a single diagnostic
// line and exit 1 on any construction or I/O failure.
//
// Grounded on cmd/render.go's RenderFrame shape (load input, build the
// renderer, run it, print a stats table), adapted from a scene/tracer
// pipeline to blacklight's camera/geodesic/coefficient pipeline.
func Render(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("must give a single input file")
	}

	cfg, err := config.Load(ctx.Args().First())
	if err != nil {
		return err
	}

	r, err := buildRenderer(cfg)
	if err != nil {
		return err
	}

	frame := r.Run(cfg.Camera.Resolution, cfg.Adaptive.Block)

	var buf bytes.Buffer
	buf.WriteString(render.StatsTable(frame.Stats))
	logger.Noticef("render complete\n%s", buf.String())
	return nil
}

func buildRenderer(cfg *config.Config) (*render.Renderer, error) {
	if cfg.ModelType == config.ModelSimulation {
		return nil, errSimulationModelUnsupported
	}

	geo := metric.New(1.0, cfg.Geometry.Spin, cfg.RayTracing.Flat)

	cam := camera.Build(geo, camera.Config{
		Type:       camera.Type(cfg.Camera.Type),
		R:          cfg.Camera.R,
		Th:         cfg.Camera.Th,
		Ph:         cfg.Camera.Ph,
		Width:      cfg.Camera.Width,
		Resolution: cfg.Camera.Resolution,
		Pole:       cfg.Camera.Pole,
		Rotation:   cfg.Camera.Rotation,
	})

	source := coefficients.FormulaModel{P: coefficients.FormulaParams{
		L0: cfg.Formula.L0, Q: cfg.Formula.Q,
		R0: cfg.Formula.R0, H: cfg.Formula.H,
		Cn0: cfg.Formula.Cn0, NuP: cfg.Formula.NuP, Alpha: cfg.Formula.Alpha,
		A: cfg.Formula.A, Beta: cfg.Formula.Beta,
		BhM: 1.0, BhA: cfg.Geometry.Spin, MomentumFactor: 1.0,
	}}

	gp := geodesic.Params{
		StepInitial: cfg.RayTracing.StepInitial,
		TolAbs:      cfg.RayTracing.TolAbs,
		TolRel:      cfg.RayTracing.TolRel,
		MinFactor:   cfg.RayTracing.MinFactor,
		MaxFactor:   cfg.RayTracing.MaxFactor,
		ErrFactor:   cfg.RayTracing.ErrFactor,
		MaxRetries:  cfg.RayTracing.MaxRetries,
		MaxSteps:    cfg.RayTracing.MaxSteps,
		RTerminate:  terminationRadius(cfg.RayTracing),
		EpsHorizon:  1e-5,
	}

	params := render.Params{
		Geodesic: gp,
		Fallback: coefficients.FallbackPolicy{NaN: cfg.Fallback.NaN},
		Images: render.Images{
			Light: cfg.Images.Light, Time: cfg.Images.Time, Length: cfg.Images.Length,
			Lambda: cfg.Images.Lambda, Emission: cfg.Images.Emission, Tau: cfg.Images.Tau,
			LambdaAve: cfg.Images.LambdaAve, EmissionAve: cfg.Images.EmissionAve, TauInt: cfg.Images.TauInt,
			Polarization: cfg.Polarization,
		},
		Adaptive: adaptive.Params{
			Value:    toAdaptiveCriterion(cfg.Adaptive.Value),
			AbsGrad:  toAdaptiveCriterion(cfg.Adaptive.AbsGrad),
			RelGrad:  toAdaptiveCriterion(cfg.Adaptive.RelGrad),
			AbsLap:   toAdaptiveCriterion(cfg.Adaptive.AbsLap),
			RelLap:   toAdaptiveCriterion(cfg.Adaptive.RelLap),
			MaxLevel: cfg.Adaptive.MaxLevel,
			Block:    cfg.Adaptive.Block,
		},
		CameraNu: cfg.Formula.NuP,
	}

	return render.New(geo, cam, source, cfg.NumThreads, params), nil
}

func toAdaptiveCriterion(c config.CriterionInput) adaptive.Criterion {
	return adaptive.Criterion{Enabled: c.Enabled, Cut: c.Cut, Fraction: c.Fraction}
}

// terminationRadius converts the additive/multiplicative termination
// policy into an absolute r_terminate, per spec.md 6's "termination
// policy {additive, multiplicative} and factor", from a base radius of
// 100 (additive: 100 + factor; multiplicative: 100 * factor).
func terminationRadius(rt config.RayTracing) float64 {
	switch rt.Termination {
	case config.TerminationMultiplicative:
		return rt.TerminationFactor * 100
	default:
		return 100 + rt.TerminationFactor
	}
}

