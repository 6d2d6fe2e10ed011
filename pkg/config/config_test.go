package config

import "testing"

func validBase() Config {
	return Config{
		ModelType:  ModelFormula,
		NumThreads: 4,
		Geometry:   Geometry{Spin: 0.5, MassMsun: 1},
		Camera:     Camera{Resolution: 64},
		Images:     ImageSelection{Light: true},
		Adaptive:   Adaptive{MaxLevel: 2, Block: 16},
	}
}

func TestValidateRejectsNoImageSelected(t *testing.T) {
	c := validBase()
	c.Images = ImageSelection{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error when no image is selected")
	}
}

func TestValidateRejectsInvalidSpin(t *testing.T) {
	c := validBase()
	c.Geometry.Spin = 1.0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for spin outside (-1, 1)")
	}
}

// TestValidateRejectsNonDivisibleBlock covers boundary property 8:
// camera_resolution % adaptive_block_size == 0 is enforced.
func TestValidateRejectsNonDivisibleBlock(t *testing.T) {
	c := validBase()
	c.Camera.Resolution = 65
	c.Adaptive.Block = 16
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error when resolution is not divisible by block size")
	}
}

func TestValidateRejectsCheckpointConflict(t *testing.T) {
	c := validBase()
	c.Checkpoint.GeodesicSave = true
	c.Checkpoint.GeodesicLoad = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for simultaneous checkpoint save and load")
	}
}

func TestValidateRejectsPolarizationOnFormulaModel(t *testing.T) {
	c := validBase()
	c.Polarization = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error: polarization is simulation-model only")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error on a well-formed config: %v", err)
	}
}
