package adaptive

import "testing"

func TestShouldRefineValueCriterion(t *testing.T) {
	tile := Tile{B: 2, Values: []float64{10, 0, 0, 0}}
	p := Params{Value: Criterion{Enabled: true, Cut: 5, Fraction: 0.1}, MaxLevel: 2}

	if !ShouldRefine(tile, p) {
		t.Fatalf("expected value criterion to fire: one of 4 pixels exceeds cut (25%% > 10%% threshold)")
	}
}

func TestShouldRefineNoneEnabled(t *testing.T) {
	tile := Tile{B: 2, Values: []float64{100, 100, 100, 100}}
	p := Params{MaxLevel: 2}
	if ShouldRefine(tile, p) {
		t.Fatalf("expected no refinement when every criterion is disabled")
	}
}

func TestShouldRefineFractionBelowThreshold(t *testing.T) {
	tile := Tile{B: 4, Values: make([]float64, 16)}
	tile.Values[0] = 100 // only 1/16 = 6.25% exceeds cut
	p := Params{Value: Criterion{Enabled: true, Cut: 5, Fraction: 0.5}, MaxLevel: 2}

	if ShouldRefine(tile, p) {
		t.Fatalf("expected no refinement when fraction exceeding cut is below threshold")
	}
}

func TestAbsGradientFlatTileIsZero(t *testing.T) {
	tile := Tile{B: 3, Values: []float64{5, 5, 5, 5, 5, 5, 5, 5, 5}}
	grads := absGradients(tile)
	for _, g := range grads {
		if g != 0 {
			t.Fatalf("expected zero gradient on a flat tile, got %v", grads)
		}
	}
}

func TestAbsLaplacianFlatTileIsZero(t *testing.T) {
	tile := Tile{B: 3, Values: []float64{5, 5, 5, 5, 5, 5, 5, 5, 5}}
	laps := absLaplacians(tile)
	for _, l := range laps {
		if l != 0 {
			t.Fatalf("expected zero Laplacian on a flat tile, got %v", laps)
		}
	}
}

func TestDoneAtMaxLevel(t *testing.T) {
	p := Params{MaxLevel: 3}
	if !Done(3, p, []bool{true, true}) {
		t.Fatalf("expected Done to terminate at the level cap regardless of flags")
	}
}

func TestDoneWhenNoTileFlagged(t *testing.T) {
	p := Params{MaxLevel: 3}
	if !Done(1, p, []bool{false, false}) {
		t.Fatalf("expected Done when no tile was flagged")
	}
	if Done(1, p, []bool{false, true}) {
		t.Fatalf("expected not Done when a tile was flagged")
	}
}
