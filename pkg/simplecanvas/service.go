package simplecanvas

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface of the simple-canvas library. It
// covers durable tile operations and embed resolution; per-session
// in-memory state is owned by Canvas, which is built on top of a Service.
type Service interface {
	// Tile operations
	CreateTile(ctx context.Context, req CreateTileRequest) (*ContentTile, error)
	GetTile(ctx context.Context, id uuid.UUID) (*ContentTile, error)
	UpdateTileDescription(ctx context.Context, id uuid.UUID, description string) (*ContentTile, error)
	DeleteTile(ctx context.Context, id uuid.UUID) error

	// Layout operations
	LoadLayout(ctx context.Context, ownerID uuid.UUID) ([]*ContentTile, error)
	ApplyLayoutChanges(ctx context.Context, changes []LayoutChange) (*LayoutResult, error)

	// Embed resolution
	ResolveEmbed(ctx context.Context, url string) (*EmbedResult, error)
}

// CreateTileRequest contains parameters for creating a new tile.
type CreateTileRequest struct {
	OwnerID     uuid.UUID
	SourceURL   string
	Description string
	Embed       *EmbedResult
	Position    Position
}
