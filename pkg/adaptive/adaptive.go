// Package adaptive implements the tile refinement controller of
// spec.md 4.G: given a finished level's tile images, it decides which
// tiles need to be resubdivided into finer children.
package adaptive

import "math"

// Criterion is one refinement test: a cut threshold and the minimum
// fraction of a tile's pixels that must exceed it for the criterion to
// fire. Disabled criteria have Enabled == false and are skipped.
type Criterion struct {
	Enabled  bool
	Cut      float64
	Fraction float64
}

// Params bundles every refinement criterion plus the adaptive level cap,
// named after the adaptive_* input fields.
type Params struct {
	Value    Criterion // max |I| within the tile
	AbsGrad  Criterion // absolute finite-difference gradient
	RelGrad  Criterion // gradient relative to local value
	AbsLap   Criterion // absolute discrete Laplacian
	RelLap   Criterion // Laplacian relative to local value

	MaxLevel int // adaptive_max_level
	Block    int // adaptive_block_size (B)
}

// fraction returns the share of values exceeding cut.
func fraction(values []float64, cut float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > cut {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func (c Criterion) fires(values []float64) bool {
	if !c.Enabled {
		return false
	}
	return fraction(values, c.Cut) > c.Fraction
}

// Tile is a square B x B block of a level-0 or refined image, stored
// row-major.
type Tile struct {
	B      int
	Values []float64
}

func (t Tile) at(i, j int) float64 {
	return t.Values[j*t.B+i]
}

// absGradients returns the absolute finite-difference gradient magnitude
// at each pixel, using a centered difference in the interior and a
// one-sided difference clipped at tile boundaries (spec.md 4.G).
func absGradients(t Tile) []float64 {
	out := make([]float64, len(t.Values))
	for j := 0; j < t.B; j++ {
		for i := 0; i < t.B; i++ {
			var dx, dy float64
			switch {
			case i == 0:
				dx = t.at(1, j) - t.at(0, j)
			case i == t.B-1:
				dx = t.at(i, j) - t.at(i-1, j)
			default:
				dx = 0.5 * (t.at(i+1, j) - t.at(i-1, j))
			}
			switch {
			case j == 0:
				dy = t.at(i, 1) - t.at(i, 0)
			case j == t.B-1:
				dy = t.at(i, j) - t.at(i, j-1)
			default:
				dy = 0.5 * (t.at(i, j+1) - t.at(i, j-1))
			}
			out[j*t.B+i] = math.Hypot(dx, dy)
		}
	}
	return out
}

// relGradients divides absGradients by |value|, substituting the
// gradient itself (i.e. an implicit denominator of 1) wherever the local
// value underflows, to avoid a divide-by-zero blowup on flat-zero tiles.
func relGradients(t Tile) []float64 {
	abs := absGradients(t)
	out := make([]float64, len(abs))
	for n, g := range abs {
		denom := math.Abs(t.Values[n])
		if denom < 1e-300 {
			out[n] = g
			continue
		}
		out[n] = g / denom
	}
	return out
}

// absLaplacians returns the discrete 5-point Laplacian magnitude at each
// pixel; at tile boundaries the neighbor index is clamped to the tile, so
// an edge pixel stands in for its own missing neighbor.
func absLaplacians(t Tile) []float64 {
	out := make([]float64, len(t.Values))
	clampI := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > t.B-1 {
			return t.B - 1
		}
		return i
	}
	for j := 0; j < t.B; j++ {
		for i := 0; i < t.B; i++ {
			lap := t.at(clampI(i+1), j) + t.at(clampI(i-1), j) +
				t.at(i, clampI(j+1)) + t.at(i, clampI(j-1)) - 4*t.at(i, j)
			out[j*t.B+i] = math.Abs(lap)
		}
	}
	return out
}

func relLaplacians(t Tile) []float64 {
	abs := absLaplacians(t)
	out := make([]float64, len(abs))
	for n, l := range abs {
		denom := math.Abs(t.Values[n])
		if denom < 1e-300 {
			out[n] = l
			continue
		}
		out[n] = l / denom
	}
	return out
}

func absValues(t Tile) []float64 {
	out := make([]float64, len(t.Values))
	for n, v := range t.Values {
		out[n] = math.Abs(v)
	}
	return out
}

// ShouldRefine reports whether any enabled criterion fires for the tile,
// per spec.md 4.G.
func ShouldRefine(t Tile, p Params) bool {
	return p.Value.fires(absValues(t)) ||
		p.AbsGrad.fires(absGradients(t)) ||
		p.RelGrad.fires(relGradients(t)) ||
		p.AbsLap.fires(absLaplacians(t)) ||
		p.RelLap.fires(relLaplacians(t))
}

// Done reports whether refinement has terminated at level: either the
// level cap was reached, or nothing in flagged was true.
func Done(level int, p Params, flagged []bool) bool {
	if level >= p.MaxLevel {
		return true
	}
	for _, f := range flagged {
		if f {
			return false
		}
	}
	return true
}
