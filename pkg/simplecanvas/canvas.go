package simplecanvas

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Canvas owns the in-memory tile state of one open editing session. State
// is per-session, not process-wide, so multiple canvases can be open
// concurrently. Flows targeting different tiles may interleave; each flow
// mutates only the entries it owns, never re-deriving the whole collection
// from a stale snapshot.
//
// There is no cancellation of in-flight resolve or persist calls: once a
// flow has started it runs to completion, and results arriving after
// Close has torn the session down are discarded rather than applied.
type Canvas struct {
	svc     Service
	ownerID uuid.UUID
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	tiles  []*ContentTile // creation order
}

// NewCanvas creates an empty canvas session for one owner. Call Load to
// hydrate it from the persisted layout.
func NewCanvas(svc Service, ownerID uuid.UUID) *Canvas {
	return &Canvas{
		svc:     svc,
		ownerID: ownerID,
		logger:  slog.Default(),
	}
}

// Load replaces the in-memory state with the persisted layout, ordered by
// creation time ascending.
func (c *Canvas) Load(ctx context.Context) error {
	tiles, err := c.svc.LoadLayout(ctx, c.ownerID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCanvasClosed
	}
	c.tiles = tiles
	return nil
}

// OwnerID returns the owning profile of this canvas.
func (c *Canvas) OwnerID() uuid.UUID {
	return c.ownerID
}

// AddContent runs the add-content flow: resolve the URL, assign the next
// free position from the in-memory tile set, persist the new tile, then
// append it to the session state.
//
// A resolution failure aborts the flow with no tile created anywhere; the
// returned error wraps the specific failure sentinel. A persistence failure
// likewise leaves the session state unchanged, so the visible canvas never
// shows a tile that was not durably stored. A resolution that succeeds with
// nothing to offer still creates the tile, without an embed.
func (c *Canvas) AddContent(ctx context.Context, url, description string) (*ContentTile, error) {
	if c.isClosed() {
		return nil, ErrCanvasClosed
	}

	embed, err := c.svc.ResolveEmbed(ctx, url)
	if err != nil {
		return nil, err
	}

	pos := c.nextPosition()

	tile, err := c.svc.CreateTile(ctx, CreateTileRequest{
		OwnerID:     c.ownerID,
		SourceURL:   url,
		Description: description,
		Embed:       embed,
		Position:    pos,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// The session went away while the write was in flight. The tile is
		// durably stored but no longer has a canvas to appear on.
		c.logger.Warn("Discarding tile persisted after canvas teardown", "tile_id", tile.ID)
		return nil, ErrCanvasClosed
	}
	c.tiles = append(c.tiles, tile)

	copied := *tile
	return &copied, nil
}

// DeleteContent runs the delete-content flow: the store delete must confirm
// before the tile disappears from the session state. On failure the tile
// stays visible and the error is surfaced.
func (c *Canvas) DeleteContent(ctx context.Context, id uuid.UUID) error {
	if c.isClosed() {
		return ErrCanvasClosed
	}

	if err := c.svc.DeleteTile(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tiles {
		if t.ID == id {
			c.tiles = append(c.tiles[:i], c.tiles[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateDescription edits a tile's annotation, store first, then the
// session copy.
func (c *Canvas) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	if c.isClosed() {
		return ErrCanvasClosed
	}

	updated, err := c.svc.UpdateTileDescription(ctx, id, description)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tiles {
		if t.ID == id {
			c.tiles[i] = updated
			break
		}
	}
	return nil
}

// ChangeLayout runs the layout-change flow for a batch emitted by the
// interactive surface. In-memory positions update optimistically and
// immediately so the surface stays responsive; the batch is then forwarded
// verbatim for best-effort persistence. Persistence failures are logged and
// reported in the result but never revert the visual state.
func (c *Canvas) ChangeLayout(ctx context.Context, changes []LayoutChange) (*LayoutResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCanvasClosed
	}
	for _, change := range changes {
		if change.Position.Validate() != nil {
			continue
		}
		for _, t := range c.tiles {
			if t.ID == change.ID {
				t.Position = change.Position
				break
			}
		}
	}
	c.mu.Unlock()

	result, err := c.svc.ApplyLayoutChanges(ctx, changes)
	if err != nil {
		return nil, err
	}
	if failed := result.Failed(); failed > 0 {
		c.logger.Warn("Layout batch persisted with failures", "owner_id", c.ownerID, "failed", failed)
	}
	return result, nil
}

// Watch consumes layout batches from an interactive surface until the
// context ends or the surface closes its channel.
func (c *Canvas) Watch(ctx context.Context, src LayoutSource) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case changes, ok := <-src.Changes():
				if !ok {
					return
				}
				if _, err := c.ChangeLayout(ctx, changes); err != nil {
					c.logger.Warn("Layout batch dropped", "owner_id", c.ownerID, "error", err)
				}
			}
		}
	}()
}

// Tiles returns copies of the session tiles in creation order.
func (c *Canvas) Tiles() []*ContentTile {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*ContentTile, 0, len(c.tiles))
	for _, t := range c.tiles {
		copied := *t
		result = append(result, &copied)
	}
	return result
}

// Close tears the session down. Results of flows still in flight are
// discarded when they arrive; the canvas accepts no further operations.
func (c *Canvas) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.tiles = nil
}

func (c *Canvas) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Canvas) nextPosition() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NextPosition(c.tiles)
}
