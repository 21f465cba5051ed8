package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
)

// Repository implements simplecanvas.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	tiles map[uuid.UUID]*simplecanvas.ContentTile
}

// New creates a new in-memory repository
func New() simplecanvas.Repository {
	return &Repository{
		tiles: make(map[uuid.UUID]*simplecanvas.ContentTile),
	}
}

func (r *Repository) CreateTile(ctx context.Context, tile *simplecanvas.ContentTile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	tileCopy := copyTile(tile)
	r.tiles[tile.ID] = tileCopy

	return nil
}

func (r *Repository) GetTile(ctx context.Context, id uuid.UUID) (*simplecanvas.ContentTile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tile, exists := r.tiles[id]
	if !exists {
		return nil, simplecanvas.ErrTileNotFound
	}
	return copyTile(tile), nil
}

func (r *Repository) UpdateTilePosition(ctx context.Context, id uuid.UUID, pos simplecanvas.Position, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tile, exists := r.tiles[id]
	if !exists {
		return simplecanvas.ErrTileNotFound
	}

	tile.Position = pos
	tile.UpdatedAt = updatedAt
	return nil
}

func (r *Repository) UpdateTileDescription(ctx context.Context, id uuid.UUID, description string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tile, exists := r.tiles[id]
	if !exists {
		return simplecanvas.ErrTileNotFound
	}

	tile.Description = description
	tile.UpdatedAt = updatedAt
	return nil
}

func (r *Repository) DeleteTile(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tiles[id]; !exists {
		return simplecanvas.ErrTileNotFound
	}

	// Removal is permanent, not a soft delete.
	delete(r.tiles, id)
	return nil
}

func (r *Repository) ListTiles(ctx context.Context, ownerID uuid.UUID) ([]*simplecanvas.ContentTile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecanvas.ContentTile
	for _, tile := range r.tiles {
		if tile.OwnerID == ownerID {
			result = append(result, copyTile(tile))
		}
	}

	// Sort by created_at ascending for a stable iteration order
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func copyTile(tile *simplecanvas.ContentTile) *simplecanvas.ContentTile {
	tileCopy := *tile
	if tile.Embed != nil {
		embedCopy := *tile.Embed
		embedCopy.Thumbnails = append([]simplecanvas.EmbedLink(nil), tile.Embed.Thumbnails...)
		embedCopy.Icons = append([]simplecanvas.EmbedLink(nil), tile.Embed.Icons...)
		tileCopy.Embed = &embedCopy
	}
	return &tileCopy
}
