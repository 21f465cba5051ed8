package simplecanvas

// NextPosition computes the insertion coordinates for a newly created tile
// given the current set of occupied tiles.
//
// The policy is append-only, no-reflow: the new tile starts at column 0 on
// the first row at or below every existing tile's bottom edge, sized with
// the grid defaults. This guarantees no overlap with any existing tile at
// the moment of insertion, but never backfills gaps left by later deletes
// or moves; a sparse grid is an accepted tradeoff.
func NextPosition(tiles []*ContentTile) Position {
	maxBottom := 0
	for _, t := range tiles {
		if b := t.Position.Bottom(); b > maxBottom {
			maxBottom = b
		}
	}
	return Position{
		X:      0,
		Y:      maxBottom,
		Width:  DefaultTileWidth,
		Height: DefaultTileHeight,
	}
}
