package pyramid

import "testing"

func TestAssembleRootOnly(t *testing.T) {
	p := New(4, 2) // 2x2 grid of 2x2 tiles
	p.Set(TileID{0, 0, 0}, &Tile{B: 2, Values: []float64{1, 1, 1, 1}})
	p.Set(TileID{0, 1, 0}, &Tile{B: 2, Values: []float64{2, 2, 2, 2}})
	p.Set(TileID{0, 0, 1}, &Tile{B: 2, Values: []float64{3, 3, 3, 3}})
	p.Set(TileID{0, 1, 1}, &Tile{B: 2, Values: []float64{4, 4, 4, 4}})

	img := p.Assemble(4)
	if img[0] != 1 || img[3] != 2 || img[4*2] != 3 || img[4*3+3] != 4 {
		t.Fatalf("unexpected assembled image: %v", img)
	}
}

func TestAssembleRefinedTileOverridesParent(t *testing.T) {
	p := New(4, 2)
	p.Set(TileID{0, 0, 0}, &Tile{B: 2, Values: []float64{1, 1, 1, 1}})

	children := TileID{0, 0, 0}.Children()
	p.Set(children[0], &Tile{B: 2, Values: []float64{9, 9, 9, 9}})
	p.Set(children[1], &Tile{B: 2, Values: []float64{9, 9, 9, 9}})
	p.Set(children[2], &Tile{B: 2, Values: []float64{9, 9, 9, 9}})
	p.Set(children[3], &Tile{B: 2, Values: []float64{9, 9, 9, 9}})

	img := p.Assemble(8)
	// The refined children fully cover the parent tile's footprint,
	// which is the top-left 4x4 block of the 8x8 output.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if v := img[y*8+x]; v != 9 {
				t.Fatalf("expected refined child value 9 at (%d,%d), got %v", x, y, v)
			}
		}
	}
}

func TestMaxLevelAndTilesPerSide(t *testing.T) {
	p := New(8, 2)
	if p.TilesPerSide() != 4 {
		t.Fatalf("TilesPerSide() = %d, want 4", p.TilesPerSide())
	}
	if p.MaxLevel() != 0 {
		t.Fatalf("MaxLevel() = %d, want 0 before any higher-level tile is set", p.MaxLevel())
	}
	p.Set(TileID{1, 0, 0}, &Tile{B: 2, Values: make([]float64, 4)})
	if p.MaxLevel() != 1 {
		t.Fatalf("MaxLevel() = %d, want 1 after setting a level-1 tile", p.MaxLevel())
	}
}

func TestTileIDChildrenAndParent(t *testing.T) {
	id := TileID{2, 3, 5}
	children := id.Children()
	for _, c := range children {
		if c.Parent() != id {
			t.Fatalf("child %v's parent = %v, want %v", c, c.Parent(), id)
		}
	}
}
