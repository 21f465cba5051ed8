package simplecanvas

import (
	"time"

	"github.com/google/uuid"
)

// Grid defaults. Positions and sizes are expressed in grid units on a
// fixed-column canvas.
const (
	GridColumns       = 12
	DefaultTileWidth  = 4
	DefaultTileHeight = 4
)

// Position is a tile rectangle in grid units.
type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Validate checks the position invariants: non-negative origin, at least
// one grid unit on each side.
func (p Position) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return ErrInvalidPosition
	}
	if p.Width < 1 || p.Height < 1 {
		return ErrInvalidPosition
	}
	return nil
}

// Overlaps reports whether two rectangles intersect. Touching edges do not
// count as overlap.
func (p Position) Overlaps(other Position) bool {
	if p.X+p.Width <= other.X || other.X+other.Width <= p.X {
		return false
	}
	if p.Y+p.Height <= other.Y || other.Y+other.Height <= p.Y {
		return false
	}
	return true
}

// Bottom returns the first free row below the rectangle.
func (p Position) Bottom() int {
	return p.Y + p.Height
}

// EmbedLink is one thumbnail or icon link reported by the embed service.
type EmbedLink struct {
	HRef string   `json:"href"`
	Type string   `json:"type,omitempty"`
	Rel  []string `json:"rel,omitempty"`
}

// EmbedResult is the structured preview of a URL obtained from the embed
// resolution service. Every field is optional; an empty result still counts
// as a successful resolution.
type EmbedResult struct {
	Title        string      `json:"title,omitempty"`
	Description  string      `json:"description,omitempty"`
	Author       string      `json:"author,omitempty"`
	Site         string      `json:"site,omitempty"`
	CanonicalURL string      `json:"canonical_url,omitempty"`
	RawMarkup    string      `json:"raw_markup,omitempty"`
	Thumbnails   []EmbedLink `json:"thumbnails,omitempty"`
	Icons        []EmbedLink `json:"icons,omitempty"`
}

// ThumbnailURL returns the first thumbnail link, or "" when none exists.
func (e *EmbedResult) ThumbnailURL() string {
	if e == nil || len(e.Thumbnails) == 0 {
		return ""
	}
	return e.Thumbnails[0].HRef
}

// IconURL returns the first icon link, or "" when none exists.
func (e *EmbedResult) IconURL() string {
	if e == nil || len(e.Icons) == 0 {
		return ""
	}
	return e.Icons[0].HRef
}

// ContentTile is one embedded piece of content placed on a canvas.
//
// ID, OwnerID and SourceURL are immutable after creation. Embed is set once
// at creation from the resolution result and never re-resolved. Position
// changes only through the layout-change flow; Description through the
// description update flow.
type ContentTile struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	SourceURL   string       `json:"source_url"`
	Description string       `json:"description,omitempty"`
	Embed       *EmbedResult `json:"embed,omitempty"`
	Position    Position     `json:"position"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// LayoutChange is one position/size update produced by the interactive
// layout surface when the user finishes a drag or resize gesture.
type LayoutChange struct {
	ID       uuid.UUID `json:"id"`
	Position Position  `json:"position"`
}

// LayoutOutcome is the per-item result of applying one layout change.
type LayoutOutcome struct {
	ID  uuid.UUID
	Err error
}

// LayoutResult collects per-item outcomes of a layout-change batch, in the
// order the changes were given. Partial success is a valid outcome.
type LayoutResult struct {
	Outcomes []LayoutOutcome
}

// Failed returns the number of changes that could not be persisted.
func (r *LayoutResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
