package simplecanvas

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	resolver   EmbedResolver
	eventSink  EventSink
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithResolver sets the embed resolver for the service
func WithResolver(resolver EmbedResolver) Option {
	return func(s *service) {
		s.resolver = resolver
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Tile operations

func (s *service) CreateTile(ctx context.Context, req CreateTileRequest) (*ContentTile, error) {
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("owner id is required")
	}
	if !isAbsoluteURL(req.SourceURL) {
		return nil, &ResolveError{URL: req.SourceURL, Err: ErrInvalidSourceURL}
	}
	if err := req.Position.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tile := &ContentTile{
		ID:          uuid.New(),
		OwnerID:     req.OwnerID,
		SourceURL:   req.SourceURL,
		Description: req.Description,
		Embed:       req.Embed,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateTile(ctx, tile); err != nil {
		return nil, &TileError{
			TileID: tile.ID,
			Op:     "create",
			Err:    err,
		}
	}

	s.fireEvent(ctx, "tile_created", func(sink EventSink) error {
		return sink.TileCreated(ctx, tile)
	})

	return tile, nil
}

func (s *service) GetTile(ctx context.Context, id uuid.UUID) (*ContentTile, error) {
	return s.repository.GetTile(ctx, id)
}

func (s *service) UpdateTileDescription(ctx context.Context, id uuid.UUID, description string) (*ContentTile, error) {
	now := time.Now().UTC()
	if err := s.repository.UpdateTileDescription(ctx, id, description, now); err != nil {
		return nil, &TileError{
			TileID: id,
			Op:     "update_description",
			Err:    err,
		}
	}

	tile, err := s.repository.GetTile(ctx, id)
	if err != nil {
		return nil, err
	}

	s.fireEvent(ctx, "tile_updated", func(sink EventSink) error {
		return sink.TileUpdated(ctx, tile)
	})

	return tile, nil
}

func (s *service) DeleteTile(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteTile(ctx, id); err != nil {
		return &TileError{
			TileID: id,
			Op:     "delete",
			Err:    err,
		}
	}

	s.fireEvent(ctx, "tile_deleted", func(sink EventSink) error {
		return sink.TileDeleted(ctx, id)
	})

	return nil
}

// Layout operations

func (s *service) LoadLayout(ctx context.Context, ownerID uuid.UUID) ([]*ContentTile, error) {
	return s.repository.ListTiles(ctx, ownerID)
}

// ApplyLayoutChanges persists a batch of interactively-produced layout
// changes. Each change is applied independently; a failure on one tile does
// not roll back or block the others, and partial success is reported
// per-item in the result. The batch is applied in the order given, without
// deduplication. No version check is performed: a layout update from one
// session silently overwrites a concurrent update from another session for
// the same tile (single-editor assumption).
func (s *service) ApplyLayoutChanges(ctx context.Context, changes []LayoutChange) (*LayoutResult, error) {
	result := &LayoutResult{
		Outcomes: make([]LayoutOutcome, 0, len(changes)),
	}

	now := time.Now().UTC()
	for _, change := range changes {
		outcome := LayoutOutcome{ID: change.ID}
		if err := change.Position.Validate(); err != nil {
			outcome.Err = err
		} else if err := s.repository.UpdateTilePosition(ctx, change.ID, change.Position, now); err != nil {
			outcome.Err = &TileError{
				TileID: change.ID,
				Op:     "update_position",
				Err:    err,
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if failed := result.Failed(); failed > 0 {
		slog.Warn("Layout changes partially applied", "total", len(changes), "failed", failed)
	}

	s.fireEvent(ctx, "layout_applied", func(sink EventSink) error {
		return sink.LayoutApplied(ctx, result)
	})

	return result, nil
}

// Embed resolution

func (s *service) ResolveEmbed(ctx context.Context, rawURL string) (*EmbedResult, error) {
	if s.resolver == nil {
		return nil, nil
	}
	return s.resolver.Resolve(ctx, rawURL)
}

func (s *service) fireEvent(ctx context.Context, name string, fire func(EventSink) error) {
	if s.eventSink == nil {
		return
	}
	if err := fire(s.eventSink); err != nil {
		slog.Warn("Event sink failed", "event", name, "error", err)
	}
}

// isAbsoluteURL reports whether raw parses as an absolute http(s) URL.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
