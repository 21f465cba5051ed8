package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
)

// CanvasHandler handles HTTP requests for canvas tiles using pkg/simplecanvas
type CanvasHandler struct {
	service  simplecanvas.Service
	renderer *simplecanvas.Renderer
}

// NewCanvasHandler creates a new canvas handler
func NewCanvasHandler(service simplecanvas.Service) *CanvasHandler {
	return &CanvasHandler{
		service:  service,
		renderer: simplecanvas.NewRenderer(),
	}
}

// Routes returns the routes for canvas tiles
func (h *CanvasHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.AddTile)
	r.Get("/", h.ListTiles)
	r.Get("/{id}", h.GetTile)
	r.Delete("/{id}", h.DeleteTile)
	r.Put("/{id}/description", h.UpdateDescription)
	r.Get("/{id}/html", h.RenderTile)

	r.Put("/layout", h.ApplyLayout)

	return r
}

// AddTileRequest is the request body for adding content to a canvas
type AddTileRequest struct {
	OwnerID     string `json:"owner_id"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// TileResponse is the response body for a tile
type TileResponse struct {
	ID          string                    `json:"id"`
	OwnerID     string                    `json:"owner_id"`
	SourceURL   string                    `json:"source_url"`
	Description string                    `json:"description,omitempty"`
	Embed       *simplecanvas.EmbedResult `json:"embed,omitempty"`
	Position    simplecanvas.Position     `json:"position"`
	RenderMode  string                    `json:"render_mode"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

func toTileResponse(tile *simplecanvas.ContentTile) TileResponse {
	return TileResponse{
		ID:          tile.ID.String(),
		OwnerID:     tile.OwnerID.String(),
		SourceURL:   tile.SourceURL,
		Description: tile.Description,
		Embed:       tile.Embed,
		Position:    tile.Position,
		RenderMode:  string(simplecanvas.ChooseRenderMode(tile.Embed)),
		CreatedAt:   tile.CreatedAt,
		UpdatedAt:   tile.UpdatedAt,
	}
}

// AddTile runs the add-content flow: resolve the URL, assign the next free
// position below the owner's existing tiles, persist the tile.
func (h *CanvasHandler) AddTile(w http.ResponseWriter, r *http.Request) {
	var req AddTileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		slog.Error("Invalid owner ID", "owner_id", req.OwnerID, "error", err)
		http.Error(w, "Invalid owner ID", http.StatusBadRequest)
		return
	}

	embed, err := h.service.ResolveEmbed(r.Context(), req.URL)
	if err != nil {
		slog.Error("Failed to resolve embed", "url", req.URL, "error", err)
		http.Error(w, err.Error(), resolveStatus(err))
		return
	}

	tiles, err := h.service.LoadLayout(r.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to load layout", "owner_id", req.OwnerID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	tile, err := h.service.CreateTile(r.Context(), simplecanvas.CreateTileRequest{
		OwnerID:     ownerID,
		SourceURL:   req.URL,
		Description: req.Description,
		Embed:       embed,
		Position:    simplecanvas.NextPosition(tiles),
	})
	if err != nil {
		slog.Error("Failed to create tile", "owner_id", req.OwnerID, "url", req.URL, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Tile created", "tile_id", tile.ID.String(), "owner_id", req.OwnerID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toTileResponse(tile))
}

// ListTiles returns all tiles for an owner in creation order
func (h *CanvasHandler) ListTiles(w http.ResponseWriter, r *http.Request) {
	ownerIDStr := r.URL.Query().Get("owner_id")
	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		slog.Error("Invalid owner ID", "owner_id", ownerIDStr, "error", err)
		http.Error(w, "Invalid owner ID", http.StatusBadRequest)
		return
	}

	tiles, err := h.service.LoadLayout(r.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to load layout", "owner_id", ownerIDStr, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]TileResponse, 0, len(tiles))
	for _, tile := range tiles {
		resp = append(resp, toTileResponse(tile))
	}

	render.JSON(w, r, resp)
}

// GetTile retrieves a tile by ID
func (h *CanvasHandler) GetTile(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid tile ID", "tile_id", idStr, "error", err)
		http.Error(w, "Invalid tile ID", http.StatusBadRequest)
		return
	}

	tile, err := h.service.GetTile(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get tile", "tile_id", idStr, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	render.JSON(w, r, toTileResponse(tile))
}

// DeleteTile permanently deletes a tile by ID
func (h *CanvasHandler) DeleteTile(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid tile ID", "tile_id", idStr, "error", err)
		http.Error(w, "Invalid tile ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTile(r.Context(), id); err != nil {
		if errors.Is(err, simplecanvas.ErrTileNotFound) {
			slog.Warn("Tile not found", "tile_id", idStr)
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete tile", "tile_id", idStr, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Tile deleted", "tile_id", idStr)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDescriptionRequest is the request body for editing a tile annotation
type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

// UpdateDescription edits a tile's free-text annotation
func (h *CanvasHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid tile ID", "tile_id", idStr, "error", err)
		http.Error(w, "Invalid tile ID", http.StatusBadRequest)
		return
	}

	var req UpdateDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tile, err := h.service.UpdateTileDescription(r.Context(), id, req.Description)
	if err != nil {
		if errors.Is(err, simplecanvas.ErrTileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		slog.Error("Failed to update tile description", "tile_id", idStr, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, toTileResponse(tile))
}

// LayoutChangeRequest is one change in a layout batch, as emitted by the
// interactive grid surface.
type LayoutChangeRequest struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

// LayoutOutcomeResponse is the per-tile outcome of a layout batch
type LayoutOutcomeResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// LayoutResultResponse reports the per-tile outcomes of a layout batch
type LayoutResultResponse struct {
	Outcomes []LayoutOutcomeResponse `json:"outcomes"`
	Failed   int                     `json:"failed"`
}

// ApplyLayout persists a batch of layout changes with best-effort,
// per-item semantics; partial success is reported per tile.
func (h *CanvasHandler) ApplyLayout(w http.ResponseWriter, r *http.Request) {
	var reqs []LayoutChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	changes := make([]simplecanvas.LayoutChange, 0, len(reqs))
	for _, req := range reqs {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			slog.Error("Invalid tile ID in layout batch", "tile_id", req.ID, "error", err)
			http.Error(w, "Invalid tile ID: "+req.ID, http.StatusBadRequest)
			return
		}
		changes = append(changes, simplecanvas.LayoutChange{
			ID:       id,
			Position: simplecanvas.Position{X: req.X, Y: req.Y, Width: req.W, Height: req.H},
		})
	}

	result, err := h.service.ApplyLayoutChanges(r.Context(), changes)
	if err != nil {
		slog.Error("Failed to apply layout changes", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := LayoutResultResponse{
		Outcomes: make([]LayoutOutcomeResponse, 0, len(result.Outcomes)),
		Failed:   result.Failed(),
	}
	for _, o := range result.Outcomes {
		out := LayoutOutcomeResponse{ID: o.ID.String()}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}

	slog.Info("Layout applied", "changes", len(changes), "failed", resp.Failed)
	render.JSON(w, r, resp)
}

// RenderTile returns the rendered HTML fragment for a tile. Trusted markup
// is emitted inside a sandboxed iframe, never inlined.
func (h *CanvasHandler) RenderTile(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid tile ID", http.StatusBadRequest)
		return
	}

	tile, err := h.service.GetTile(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	fragment, err := h.renderer.RenderTile(tile)
	if err != nil {
		slog.Error("Failed to render tile", "tile_id", idStr, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.HTML(w, r, string(fragment))
}

// resolveStatus maps an embed resolution failure to an HTTP status. Invalid
// input is the caller's fault; everything upstream is a bad gateway.
func resolveStatus(err error) int {
	switch {
	case errors.Is(err, simplecanvas.ErrInvalidSourceURL):
		return http.StatusBadRequest
	case errors.Is(err, simplecanvas.ErrNetworkFailure),
		errors.Is(err, simplecanvas.ErrUpstreamError),
		errors.Is(err, simplecanvas.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
