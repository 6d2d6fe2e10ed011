// Package pyramid implements the sparse multi-level tile aggregator of
// spec.md 4.H: level-0 tiles are allocated uniformly, higher levels only
// where pkg/adaptive requested a subdivision, and final assembly walks
// finest-first so a refined tile's children always win over their
// parent.
//
// Grounded on asset/compiler/bvh/bvh_builder.go's shape: a contiguous
// per-level store built by a single construction pass, generalized from
// a binary tree of nodes to a sparse quad-tree of tiles addressed by
// (level, x, y).
package pyramid

// TileID addresses one tile: level 0 is a uniform grid of
// (resolution/block)^2 tiles; level L+1 addresses are obtained from a
// flagged level-L tile by doubling its (x,y) coordinates and adding
// (0 or 1, 0 or 1) for each of its four children.
type TileID struct {
	Level, X, Y int
}

// Children returns the four TileIDs produced when id is refined.
func (id TileID) Children() [4]TileID {
	return [4]TileID{
		{id.Level + 1, 2 * id.X, 2 * id.Y},
		{id.Level + 1, 2*id.X + 1, 2 * id.Y},
		{id.Level + 1, 2 * id.X, 2*id.Y + 1},
		{id.Level + 1, 2*id.X + 1, 2*id.Y + 1},
	}
}

// Parent returns the level-(L-1) tile id was refined from; the result has
// no meaning for a level-0 tile.
func (id TileID) Parent() TileID {
	return TileID{id.Level - 1, id.X / 2, id.Y / 2}
}

// Tile is one B x B block of pixel values, row-major.
type Tile struct {
	B      int
	Values []float64
}

// Pyramid is the sparse image pyramid: level 0 is fully allocated on
// first use; higher levels hold only the tiles pkg/adaptive actually
// refined.
type Pyramid struct {
	Resolution int // R: level-0 image side length in pixels
	Block      int // B: tile side length in pixels, divides R

	levels []map[TileID]*Tile
}

// New allocates an empty pyramid; level 0's tiles are created lazily by
// the first Set call, per spec.md 3's lifecycle note ("all level-0
// arrays are allocated once, on the first call").
func New(resolution, block int) *Pyramid {
	return &Pyramid{
		Resolution: resolution,
		Block:      block,
		levels:     []map[TileID]*Tile{make(map[TileID]*Tile)},
	}
}

// TilesPerSide returns how many tiles span one side of the level-0 grid.
func (p *Pyramid) TilesPerSide() int {
	return p.Resolution / p.Block
}

// Set stores a tile, allocating intermediate levels lazily as needed.
func (p *Pyramid) Set(id TileID, t *Tile) {
	for len(p.levels) <= id.Level {
		p.levels = append(p.levels, make(map[TileID]*Tile))
	}
	p.levels[id.Level][TileID{id.Level, id.X, id.Y}] = t
}

// Get retrieves a tile, if present.
func (p *Pyramid) Get(id TileID) (*Tile, bool) {
	if id.Level >= len(p.levels) {
		return nil, false
	}
	t, ok := p.levels[id.Level][id]
	return t, ok
}

// MaxLevel returns the deepest level holding at least one tile.
func (p *Pyramid) MaxLevel() int {
	return len(p.levels) - 1
}

// Assemble walks the pyramid finest-first and returns a flat row-major
// image at output resolution outRes x outRes (outRes must be Resolution
// scaled by 2^level for the deepest level actually used by the caller):
// a pixel's value is taken from the deepest level whose tile covers it;
// root tiles that were never refined contribute directly, per
// spec.md 4.H.
func (p *Pyramid) Assemble(outRes int) []float64 {
	out := make([]float64, outRes*outRes)
	filled := make([]bool, outRes*outRes)

	for level := p.MaxLevel(); level >= 0; level-- {
		tilesPerSide := p.TilesPerSide() << uint(level)
		cell := outRes / tilesPerSide
		if cell == 0 {
			continue
		}
		for id, tile := range p.levels[level] {
			baseX := id.X * cell
			baseY := id.Y * cell
			for ty := 0; ty < tile.B; ty++ {
				for tx := 0; tx < tile.B; tx++ {
					// Nearest-neighbor expansion of the tile's B x B
					// samples into its cell x cell output footprint.
					fx0 := tx * cell / tile.B
					fx1 := (tx + 1) * cell / tile.B
					fy0 := ty * cell / tile.B
					fy1 := (ty + 1) * cell / tile.B
					v := tile.Values[ty*tile.B+tx]
					for oy := baseY + fy0; oy < baseY+fy1; oy++ {
						for ox := baseX + fx0; ox < baseX+fx1; ox++ {
							idx := oy*outRes + ox
							if filled[idx] {
								continue
							}
							out[idx] = v
							filled[idx] = true
						}
					}
				}
			}
		}
	}
	return out
}
