package simplecanvas

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// TileCreated does nothing and returns nil
func (n *NoopEventSink) TileCreated(ctx context.Context, tile *ContentTile) error {
	return nil
}

// TileUpdated does nothing and returns nil
func (n *NoopEventSink) TileUpdated(ctx context.Context, tile *ContentTile) error {
	return nil
}

// TileDeleted does nothing and returns nil
func (n *NoopEventSink) TileDeleted(ctx context.Context, tileID uuid.UUID) error {
	return nil
}

// LayoutApplied does nothing and returns nil
func (n *NoopEventSink) LayoutApplied(ctx context.Context, result *LayoutResult) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other
// action. Useful for development and debugging.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses
// the default slog logger.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// TileCreated logs the tile creation event
func (l *LoggingEventSink) TileCreated(ctx context.Context, tile *ContentTile) error {
	l.logger.Info("Tile created", "tile_id", tile.ID, "owner_id", tile.OwnerID, "source_url", tile.SourceURL)
	return nil
}

// TileUpdated logs the tile update event
func (l *LoggingEventSink) TileUpdated(ctx context.Context, tile *ContentTile) error {
	l.logger.Info("Tile updated", "tile_id", tile.ID)
	return nil
}

// TileDeleted logs the tile deletion event
func (l *LoggingEventSink) TileDeleted(ctx context.Context, tileID uuid.UUID) error {
	l.logger.Info("Tile deleted", "tile_id", tileID)
	return nil
}

// LayoutApplied logs the layout batch outcome
func (l *LoggingEventSink) LayoutApplied(ctx context.Context, result *LayoutResult) error {
	l.logger.Info("Layout applied", "changes", len(result.Outcomes), "failed", result.Failed())
	return nil
}
