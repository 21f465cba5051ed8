package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplecanvas.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simplecanvas.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplecanvas.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("tile already exists")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return simplecanvas.ErrTileNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateTile(ctx context.Context, tile *simplecanvas.ContentTile) error {
	embed, err := marshalEmbed(tile.Embed)
	if err != nil {
		return fmt.Errorf("marshal embed for tile %s: %w", tile.ID, err)
	}

	query := `
		INSERT INTO content_tile (
			id, owner_id, source_url, description, embed,
			layout_x, layout_y, layout_w, layout_h, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		tile.ID, tile.OwnerID, tile.SourceURL, tile.Description, embed,
		tile.Position.X, tile.Position.Y, tile.Position.Width, tile.Position.Height,
		tile.CreatedAt, tile.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create tile", err)
	}

	return nil
}

func (r *Repository) GetTile(ctx context.Context, id uuid.UUID) (*simplecanvas.ContentTile, error) {
	query := `
		SELECT id, owner_id, source_url, description, embed,
		       layout_x, layout_y, layout_w, layout_h, created_at, updated_at
		FROM content_tile WHERE id = $1`

	tile, err := scanTile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, simplecanvas.ErrTileNotFound
		}
		return nil, err
	}

	return tile, nil
}

func (r *Repository) UpdateTilePosition(ctx context.Context, id uuid.UUID, pos simplecanvas.Position, updatedAt time.Time) error {
	// Last write wins; no version check by design (single-editor assumption).
	query := `
		UPDATE content_tile SET
			layout_x = $2, layout_y = $3, layout_w = $4, layout_h = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, pos.X, pos.Y, pos.Width, pos.Height, updatedAt)
	if err != nil {
		return r.handlePostgresError("update tile position", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecanvas.ErrTileNotFound
	}

	return nil
}

func (r *Repository) UpdateTileDescription(ctx context.Context, id uuid.UUID, description string, updatedAt time.Time) error {
	query := `UPDATE content_tile SET description = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, description, updatedAt)
	if err != nil {
		return r.handlePostgresError("update tile description", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecanvas.ErrTileNotFound
	}

	return nil
}

func (r *Repository) DeleteTile(ctx context.Context, id uuid.UUID) error {
	// Hard delete: tile removal is permanent and unrecoverable.
	query := `DELETE FROM content_tile WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete tile", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecanvas.ErrTileNotFound
	}

	return nil
}

func (r *Repository) ListTiles(ctx context.Context, ownerID uuid.UUID) ([]*simplecanvas.ContentTile, error) {
	query := `
		SELECT id, owner_id, source_url, description, embed,
		       layout_x, layout_y, layout_w, layout_h, created_at, updated_at
		FROM content_tile WHERE owner_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list tiles", err)
	}
	defer rows.Close()

	var tiles []*simplecanvas.ContentTile
	for rows.Next() {
		tile, err := scanTile(rows)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, tile)
	}

	return tiles, rows.Err()
}

func marshalEmbed(embed *simplecanvas.EmbedResult) ([]byte, error) {
	if embed == nil {
		return nil, nil
	}
	return json.Marshal(embed)
}

func scanTile(row pgx.Row) (*simplecanvas.ContentTile, error) {
	var tile simplecanvas.ContentTile
	var embed []byte
	err := row.Scan(
		&tile.ID, &tile.OwnerID, &tile.SourceURL, &tile.Description, &embed,
		&tile.Position.X, &tile.Position.Y, &tile.Position.Width, &tile.Position.Height,
		&tile.CreatedAt, &tile.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(embed) > 0 {
		tile.Embed = &simplecanvas.EmbedResult{}
		if err := json.Unmarshal(embed, tile.Embed); err != nil {
			return nil, fmt.Errorf("unmarshal embed for tile %s: %w", tile.ID, err)
		}
	}

	return &tile, nil
}
