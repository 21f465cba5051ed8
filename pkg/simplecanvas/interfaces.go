package simplecanvas

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for tile persistence. The store is
// treated as an opaque keyed collection of tiles per owner; each call is
// independently atomic at single-tile granularity only.
type Repository interface {
	// CreateTile stores a new tile
	CreateTile(ctx context.Context, tile *ContentTile) error

	// GetTile retrieves a tile by id
	GetTile(ctx context.Context, id uuid.UUID) (*ContentTile, error)

	// UpdateTilePosition updates the layout fields of one tile.
	// No version check is performed; the last write wins.
	UpdateTilePosition(ctx context.Context, id uuid.UUID, pos Position, updatedAt time.Time) error

	// UpdateTileDescription updates the free-text annotation of one tile
	UpdateTileDescription(ctx context.Context, id uuid.UUID, description string, updatedAt time.Time) error

	// DeleteTile permanently removes a tile. Deletion is unrecoverable.
	DeleteTile(ctx context.Context, id uuid.UUID) error

	// ListTiles returns all tiles for an owner ordered by creation time
	// ascending, so iteration order is stable and independent of position.
	ListTiles(ctx context.Context, ownerID uuid.UUID) ([]*ContentTile, error)
}

// EmbedResolver resolves a URL into a structured embed result via the
// external resolution service. Implementations are stateless and make no
// caching guarantee; repeated calls for the same URL may differ over time.
//
// A (nil, nil) return is valid: the upstream call succeeded but had nothing
// to offer. Failures wrap one of ErrInvalidSourceURL, ErrNetworkFailure,
// ErrUpstreamError or ErrInvalidResponse.
type EmbedResolver interface {
	Resolve(ctx context.Context, url string) (*EmbedResult, error)
}

// LayoutSource is the interactive layout surface: a fixed-column grid whose
// drag/resize gestures emit batches of per-tile position changes. The core
// only consumes these batches; it never initiates them.
type LayoutSource interface {
	// Changes yields one batch per finished drag or resize gesture. The
	// channel is closed when the surface goes away.
	Changes() <-chan []LayoutChange
}

// EventSink defines the interface for canvas lifecycle events. Sink errors
// are logged by the service and never fail the triggering operation.
type EventSink interface {
	// TileCreated is fired when a tile is created
	TileCreated(ctx context.Context, tile *ContentTile) error

	// TileUpdated is fired when a tile's description changes
	TileUpdated(ctx context.Context, tile *ContentTile) error

	// TileDeleted is fired when a tile is deleted
	TileDeleted(ctx context.Context, tileID uuid.UUID) error

	// LayoutApplied is fired after a layout-change batch has been processed
	LayoutApplied(ctx context.Context, result *LayoutResult) error
}
