package simplecanvas_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
	"github.com/tendant/simple-canvas/pkg/simplecanvas/repo/memory"
)

const (
	waitTimeout = 2 * time.Second
	waitTick    = 10 * time.Millisecond
)

// failingRepository wraps a real repository and fails selected operations on
// demand.
type failingRepository struct {
	simplecanvas.Repository

	failCreate         bool
	failUpdatePosition bool
}

var errStoreDown = errors.New("store unavailable")

func (r *failingRepository) CreateTile(ctx context.Context, tile *simplecanvas.ContentTile) error {
	if r.failCreate {
		return errStoreDown
	}
	return r.Repository.CreateTile(ctx, tile)
}

func (r *failingRepository) UpdateTilePosition(ctx context.Context, id uuid.UUID, pos simplecanvas.Position, updatedAt time.Time) error {
	if r.failUpdatePosition {
		return errStoreDown
	}
	return r.Repository.UpdateTilePosition(ctx, id, pos, updatedAt)
}

// blockingResolver parks Resolve until released, so a test can close the
// canvas while an add flow is in flight.
type blockingResolver struct {
	entered chan struct{}
	release chan struct{}
	result  *simplecanvas.EmbedResult
}

func newBlockingResolver(result *simplecanvas.EmbedResult) *blockingResolver {
	return &blockingResolver{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		result:  result,
	}
}

func (b *blockingResolver) Resolve(ctx context.Context, url string) (*simplecanvas.EmbedResult, error) {
	close(b.entered)
	<-b.release
	return b.result, nil
}

func setupCanvas(t *testing.T, resolver simplecanvas.EmbedResolver) (*simplecanvas.Canvas, simplecanvas.Service) {
	t.Helper()

	svc := setupTestService(t, resolver)
	canvas := simplecanvas.NewCanvas(svc, uuid.New())
	require.NoError(t, canvas.Load(context.Background()))
	return canvas, svc
}

func TestCanvas_AddContent(t *testing.T) {
	ctx := context.Background()

	t.Run("WithEmbed", func(t *testing.T) {
		embed := &simplecanvas.EmbedResult{Title: "Video", RawMarkup: "<iframe></iframe>"}
		canvas, _ := setupCanvas(t, &stubResolver{result: embed})

		tile, err := canvas.AddContent(ctx, "https://example.com/video", "a video")
		require.NoError(t, err)
		require.NotNil(t, tile)
		assert.Equal(t, simplecanvas.Position{X: 0, Y: 0, Width: 4, Height: 4}, tile.Position)
		require.NotNil(t, tile.Embed)
		assert.Equal(t, "Video", tile.Embed.Title)

		require.Len(t, canvas.Tiles(), 1)
	})

	t.Run("WithoutEmbed", func(t *testing.T) {
		// Resolution succeeded but the provider had nothing to offer.
		canvas, _ := setupCanvas(t, &stubResolver{result: nil})

		tile, err := canvas.AddContent(ctx, "https://example.com/page", "")
		require.NoError(t, err)
		assert.Nil(t, tile.Embed)
		require.Len(t, canvas.Tiles(), 1)
	})

	t.Run("SecondTileAppendsBelow", func(t *testing.T) {
		canvas, _ := setupCanvas(t, &stubResolver{})

		first, err := canvas.AddContent(ctx, "https://example.com/1", "")
		require.NoError(t, err)
		second, err := canvas.AddContent(ctx, "https://example.com/2", "")
		require.NoError(t, err)

		assert.Equal(t, 0, first.Position.Y)
		assert.Equal(t, 4, second.Position.Y)
		assert.False(t, first.Position.Overlaps(second.Position))
	})

	t.Run("ResolveFailureCreatesNothing", func(t *testing.T) {
		resolveErr := &simplecanvas.ResolveError{
			URL: "https://example.com/down",
			Err: simplecanvas.ErrNetworkFailure,
		}
		canvas, svc := setupCanvas(t, &stubResolver{err: resolveErr})

		tile, err := canvas.AddContent(ctx, "https://example.com/down", "")
		assert.ErrorIs(t, err, simplecanvas.ErrNetworkFailure)
		assert.Nil(t, tile)

		assert.Empty(t, canvas.Tiles())
		persisted, err := svc.LoadLayout(ctx, canvas.OwnerID())
		require.NoError(t, err)
		assert.Empty(t, persisted)
	})

	t.Run("PersistFailureLeavesCanvasUnchanged", func(t *testing.T) {
		repo := &failingRepository{Repository: memory.New()}
		svc, err := simplecanvas.New(
			simplecanvas.WithRepository(repo),
			simplecanvas.WithResolver(&stubResolver{}),
		)
		require.NoError(t, err)

		canvas := simplecanvas.NewCanvas(svc, uuid.New())
		require.NoError(t, canvas.Load(ctx))

		repo.failCreate = true
		tile, err := canvas.AddContent(ctx, "https://example.com/x", "")
		require.Error(t, err)
		assert.Nil(t, tile)

		// The error is a persistence error, not a resolve error.
		var tileErr *simplecanvas.TileError
		assert.ErrorAs(t, err, &tileErr)
		var resolveErr *simplecanvas.ResolveError
		assert.False(t, errors.As(err, &resolveErr))

		assert.Empty(t, canvas.Tiles())
	})
}

func TestCanvas_DeleteContent(t *testing.T) {
	ctx := context.Background()
	canvas, svc := setupCanvas(t, &stubResolver{})

	tile, err := canvas.AddContent(ctx, "https://example.com/a", "")
	require.NoError(t, err)

	t.Run("MissingTileLeavesStateUntouched", func(t *testing.T) {
		err := canvas.DeleteContent(ctx, uuid.New())
		assert.ErrorIs(t, err, simplecanvas.ErrTileNotFound)
		assert.Len(t, canvas.Tiles(), 1)
	})

	t.Run("RemovesFromStoreAndSession", func(t *testing.T) {
		require.NoError(t, canvas.DeleteContent(ctx, tile.ID))
		assert.Empty(t, canvas.Tiles())

		_, err := svc.GetTile(ctx, tile.ID)
		assert.ErrorIs(t, err, simplecanvas.ErrTileNotFound)
	})
}

func TestCanvas_UpdateDescription(t *testing.T) {
	ctx := context.Background()
	canvas, _ := setupCanvas(t, &stubResolver{})

	tile, err := canvas.AddContent(ctx, "https://example.com/a", "old")
	require.NoError(t, err)

	require.NoError(t, canvas.UpdateDescription(ctx, tile.ID, "new"))

	tiles := canvas.Tiles()
	require.Len(t, tiles, 1)
	assert.Equal(t, "new", tiles[0].Description)
}

func TestCanvas_ChangeLayout(t *testing.T) {
	ctx := context.Background()

	t.Run("AppliesToSessionAndStore", func(t *testing.T) {
		canvas, svc := setupCanvas(t, &stubResolver{})
		tile, err := canvas.AddContent(ctx, "https://example.com/a", "")
		require.NoError(t, err)

		want := simplecanvas.Position{X: 6, Y: 2, Width: 3, Height: 5}
		result, err := canvas.ChangeLayout(ctx, []simplecanvas.LayoutChange{{ID: tile.ID, Position: want}})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Failed())

		assert.Equal(t, want, canvas.Tiles()[0].Position)
		stored, err := svc.GetTile(ctx, tile.ID)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Position)
	})

	t.Run("OptimisticDespitePersistFailure", func(t *testing.T) {
		repo := &failingRepository{Repository: memory.New()}
		svc, err := simplecanvas.New(
			simplecanvas.WithRepository(repo),
			simplecanvas.WithResolver(&stubResolver{}),
		)
		require.NoError(t, err)
		canvas := simplecanvas.NewCanvas(svc, uuid.New())
		require.NoError(t, canvas.Load(ctx))

		tile, err := canvas.AddContent(ctx, "https://example.com/a", "")
		require.NoError(t, err)

		repo.failUpdatePosition = true
		want := simplecanvas.Position{X: 8, Y: 0, Width: 4, Height: 4}
		result, err := canvas.ChangeLayout(ctx, []simplecanvas.LayoutChange{{ID: tile.ID, Position: want}})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed())

		// The session keeps the new position even though persistence failed.
		assert.Equal(t, want, canvas.Tiles()[0].Position)
	})

	t.Run("InvalidChangeSkippedInSession", func(t *testing.T) {
		canvas, _ := setupCanvas(t, &stubResolver{})
		tile, err := canvas.AddContent(ctx, "https://example.com/a", "")
		require.NoError(t, err)

		bad := simplecanvas.Position{X: 0, Y: 0, Width: 0, Height: 4}
		result, err := canvas.ChangeLayout(ctx, []simplecanvas.LayoutChange{{ID: tile.ID, Position: bad}})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed())

		assert.Equal(t, simplecanvas.Position{X: 0, Y: 0, Width: 4, Height: 4}, canvas.Tiles()[0].Position)
	})
}

func TestCanvas_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	canvas, svc := setupCanvas(t, &stubResolver{})
	tile, err := canvas.AddContent(ctx, "https://example.com/a", "")
	require.NoError(t, err)

	src := newChannelLayoutSource()
	canvas.Watch(ctx, src)

	want := simplecanvas.Position{X: 2, Y: 2, Width: 6, Height: 3}
	src.emit([]simplecanvas.LayoutChange{{ID: tile.ID, Position: want}})
	src.close()

	assert.Eventually(t, func() bool {
		stored, err := svc.GetTile(ctx, tile.ID)
		return err == nil && stored.Position == want
	}, waitTimeout, waitTick)
}

func TestCanvas_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsFurtherOperations", func(t *testing.T) {
		canvas, _ := setupCanvas(t, &stubResolver{})
		canvas.Close()

		_, err := canvas.AddContent(ctx, "https://example.com/a", "")
		assert.ErrorIs(t, err, simplecanvas.ErrCanvasClosed)
		assert.ErrorIs(t, canvas.DeleteContent(ctx, uuid.New()), simplecanvas.ErrCanvasClosed)
		_, err = canvas.ChangeLayout(ctx, nil)
		assert.ErrorIs(t, err, simplecanvas.ErrCanvasClosed)
		assert.Empty(t, canvas.Tiles())
	})

	t.Run("DiscardsInFlightAdd", func(t *testing.T) {
		resolver := newBlockingResolver(nil)
		canvas, svc := setupCanvas(t, resolver)

		type addResult struct {
			tile *simplecanvas.ContentTile
			err  error
		}
		done := make(chan addResult, 1)
		go func() {
			tile, err := canvas.AddContent(ctx, "https://example.com/slow", "")
			done <- addResult{tile, err}
		}()

		<-resolver.entered
		canvas.Close()
		close(resolver.release)

		res := <-done
		assert.ErrorIs(t, res.err, simplecanvas.ErrCanvasClosed)
		assert.Nil(t, res.tile)
		assert.Empty(t, canvas.Tiles())

		// The tile was durably stored before the session closed; only the
		// session copy is discarded.
		persisted, err := svc.LoadLayout(ctx, canvas.OwnerID())
		require.NoError(t, err)
		assert.Len(t, persisted, 1)
	})
}

// channelLayoutSource is a test LayoutSource backed by a plain channel.
type channelLayoutSource struct {
	ch chan []simplecanvas.LayoutChange
}

func newChannelLayoutSource() *channelLayoutSource {
	return &channelLayoutSource{ch: make(chan []simplecanvas.LayoutChange, 4)}
}

func (s *channelLayoutSource) Changes() <-chan []simplecanvas.LayoutChange { return s.ch }

func (s *channelLayoutSource) emit(changes []simplecanvas.LayoutChange) { s.ch <- changes }

func (s *channelLayoutSource) close() { close(s.ch) }
