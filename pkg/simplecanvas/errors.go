package simplecanvas

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrTileNotFound indicates a tile was not found
	ErrTileNotFound = errors.New("tile not found")

	// ErrInvalidPosition indicates a position violates the grid invariants
	ErrInvalidPosition = errors.New("invalid tile position")

	// ErrInvalidSourceURL indicates the submitted URL is not an absolute
	// http(s) URL; reported before any network call is made
	ErrInvalidSourceURL = errors.New("invalid source url")

	// ErrNetworkFailure indicates the embed service could not be reached
	ErrNetworkFailure = errors.New("embed service unreachable")

	// ErrUpstreamError indicates the embed service was reached but returned
	// an error status or an explicit error payload
	ErrUpstreamError = errors.New("embed service returned an error")

	// ErrInvalidResponse indicates the embed service response could not be
	// parsed into the expected shape
	ErrInvalidResponse = errors.New("invalid embed service response")

	// ErrCanvasClosed indicates the canvas session has been torn down
	ErrCanvasClosed = errors.New("canvas is closed")
)

// TileError represents an error related to tile persistence operations
type TileError struct {
	TileID uuid.UUID
	Op     string
	Err    error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile operation %s failed for tile %s: %v", e.Op, e.TileID, e.Err)
}

func (e *TileError) Unwrap() error {
	return e.Err
}

// ResolveError represents an embed resolution failure for a specific URL.
// It wraps one of the resolution sentinels so callers can distinguish the
// failure kind with errors.Is.
type ResolveError struct {
	URL string
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("embed resolution failed for %s: %v", e.URL, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
