// Package config parses and validates the input-reader contract of
// spec.md 6: the field set a driver collaborator must supply, and the
// cross-field checks radiation_integrator.cpp's constructor performs
// before any geometry, camera, or ray-tracing object is built.
//
// The input-reader itself (file parsing) is out of scope per spec.md 1;
// this package defines the Config value it produces, the Validate step
// that used to live inline in the integrator constructor, and Load
// (load.go), which reads a Config from a JSON file.
package config

import (
	"github.com/blacklight-gr/blacklight/log"
	"github.com/blacklight-gr/blacklight/pkg/blerr"
)

// ModelType selects which coefficient source backs the render.
type ModelType uint8

const (
	ModelFormula ModelType = iota
	ModelSimulation
)

// CameraType mirrors pkg/camera.Type so config stays independent of it.
type CameraType uint8

const (
	CameraPlane CameraType = iota
	CameraPinhole
)

// TerminationPolicy selects how RayTracing.TerminationFactor is turned
// into the termination radius r_terminate.
type TerminationPolicy uint8

const (
	TerminationAdditive TerminationPolicy = iota
	TerminationMultiplicative
)

// PlasmaModel selects which pair of scalars parametrizes the electron
// temperature/distribution.
type PlasmaModel uint8

const (
	PlasmaTiTeBeta PlasmaModel = iota
	PlasmaCodeKappa
)

// Geometry holds the black-hole parameters shared by both model types.
type Geometry struct {
	Spin float64 // a in (-1, 1)
	MassMsun float64
}

// Camera holds the fields of spec.md 6's Camera group.
type Camera struct {
	Type                 CameraType
	R, Th, Ph            float64
	Width                float64
	Resolution           int
	Pole                 bool
	Rotation             float64
}

// RayTracing holds spec.md 6's Ray tracing group.
type RayTracing struct {
	Flat              bool
	Termination       TerminationPolicy
	TerminationFactor float64
	StepInitial       float64
	MaxSteps          int
	MaxRetries        int
	TolAbs, TolRel    float64
	MinFactor, MaxFactor, ErrFactor float64
}

// ImageSelection mirrors spec.md 6's Image selection group; at least
// one field must be true, enforced by Validate.
type ImageSelection struct {
	Light, Time, Length, Lambda         bool
	Emission, Tau                       bool
	LambdaAve, EmissionAve, TauInt      bool
	Render                              bool
}

func (s ImageSelection) any() bool {
	return s.Light || s.Time || s.Length || s.Lambda || s.Emission || s.Tau ||
		s.LambdaAve || s.EmissionAve || s.TauInt || s.Render
}

// Plasma holds spec.md 6's Plasma model group (simulation model only).
type Plasma struct {
	Mu, NeToNi float64
	Model      PlasmaModel
	RatLow, RatHigh float64 // ti_te_beta
	Kappa, W        float64 // code_kappa
	PowerFrac, KappaFrac, ThermalFrac float64
	P, GammaMin, GammaMax float64
	SigmaMax float64
}

// SlowLight holds spec.md 6's Slow-light block.
type SlowLight struct {
	On        bool
	Interp    bool
	ChunkSize int
	TStart    float64
	DT        float64
}

// Adaptive holds spec.md 6's Adaptive group; CriterionInput mirrors
// pkg/adaptive.Criterion but keeps config decoupled from it.
type CriterionInput struct {
	Enabled  bool
	Cut      float64
	Fraction float64
}

type Adaptive struct {
	MaxLevel int
	Block    int // B; must divide camera Resolution
	Value, AbsGrad, RelGrad, AbsLap, RelLap CriterionInput
}

// Checkpoint holds spec.md 6's checkpoint flags (geodesic and sample
// checkpoints are independent kinds; each save/load pair is mutually
// exclusive).
type Checkpoint struct {
	GeodesicSave, GeodesicLoad bool
	GeodesicFile               string
	SampleSave, SampleLoad     bool
	SampleFile                 string
}

// Fallback holds spec.md 7's recoverable-failure policy.
type Fallback struct {
	NaN   bool
	Rho   float64
	Pgas  float64
	Kappa float64
}

// FormulaParams holds the formula model's analytic-fluid scalars
// (grounded on formula_coefficients.cpp's CalculateFormulaCoefficients
// inputs, reused directly by pkg/coefficients.FormulaParams).
type FormulaParams struct {
	Mass, R0, H, L0, Q, NuP, Cn0, Alpha, A, Beta float64
}

// Config is the fully parsed, not-yet-validated input-reader output.
type Config struct {
	ModelType   ModelType
	NumThreads  int

	Geometry    Geometry
	Camera      Camera
	RayTracing  RayTracing
	Images      ImageSelection
	Polarization bool // simulation model only

	Plasma      Plasma
	SlowLight   SlowLight
	Adaptive    Adaptive
	Checkpoint  Checkpoint
	Fallback    Fallback
	Formula     FormulaParams
}

var logger = log.New("config")

// Validate performs the cross-field checks radiation_integrator.cpp's
// constructor made inline, translating its BlacklightWarning calls into
// Warningf log lines and its throw BlacklightException calls into
// returned blerr sentinels.
//
// Deep simulation-model validation (athena_reader-backed fields) is out
// of scope here: no simulation-snapshot reader survived into the
// retrieval pack to ground it, so only the formula-model path and the
// model-independent checks below are fully validated (see DESIGN.md).
func (c *Config) Validate() error {
	if c.Geometry.Spin <= -1 || c.Geometry.Spin >= 1 {
		return blerr.ErrInvalidSpin
	}

	if !c.Images.any() {
		return blerr.ErrNoImageSelected
	}

	if c.Polarization && c.ModelType != ModelSimulation {
		return blerr.ErrPolarizationUnsupported
	}

	if err := c.validateCheckpoints(); err != nil {
		return err
	}

	if c.Adaptive.Block <= 0 {
		return blerr.ErrAdaptiveBlockInvalid
	}
	if c.Camera.Resolution%c.Adaptive.Block != 0 {
		return blerr.ErrAdaptiveBlockNonDivides
	}
	if c.Adaptive.MaxLevel > 0 && !c.Images.Light {
		return blerr.ErrAdaptiveNeedsLight
	}

	if c.ModelType == ModelSimulation {
		c.validatePlasmaFractions()
		if c.SlowLight.On && (c.Checkpoint.SampleSave || c.Checkpoint.SampleLoad) {
			return blerr.ErrSlowLightCheckpoint
		}
	}

	return nil
}

func (c *Config) validateCheckpoints() error {
	if c.Checkpoint.GeodesicSave && c.Checkpoint.GeodesicLoad {
		return blerr.ErrCheckpointConflict
	}
	if c.Checkpoint.SampleSave && c.Checkpoint.SampleLoad {
		return blerr.ErrCheckpointConflict
	}
	if c.ModelType != ModelSimulation {
		if c.Checkpoint.SampleSave {
			logger.Warningf("ignoring checkpoint_sample_save selection for non-simulation model")
		}
		if c.Checkpoint.SampleLoad {
			logger.Warningf("ignoring checkpoint_sample_load selection for non-simulation model")
		}
	}
	return nil
}

func (c *Config) validatePlasmaFractions() {
	p := &c.Plasma
	if p.PowerFrac < 0 || p.PowerFrac > 1 {
		logger.Warningf("fraction of power-law electrons %v outside [0, 1]", p.PowerFrac)
	}
	if p.KappaFrac < 0 || p.KappaFrac > 1 {
		logger.Warningf("fraction of kappa-distribution electrons %v outside [0, 1]", p.KappaFrac)
	}
	p.ThermalFrac = 1 - (p.PowerFrac + p.KappaFrac)
	if p.ThermalFrac < 0 || p.ThermalFrac > 1 {
		logger.Warningf("fraction of thermal electrons %v outside [0, 1]", p.ThermalFrac)
	}
}
