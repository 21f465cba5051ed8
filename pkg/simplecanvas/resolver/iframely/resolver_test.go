package iframely

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-canvas/pkg/simplecanvas"
)

func TestResolve_FullPayload(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"meta": {
				"title": "A Talk",
				"description": "About things",
				"canonical": "https://example.com/talk",
				"author": "Ada",
				"site": "Example"
			},
			"links": {
				"thumbnail": [{"href": "https://example.com/t.jpg", "type": "image/jpeg", "rel": ["thumbnail"]}],
				"icon": [{"href": "https://example.com/i.png", "type": "image/png", "rel": ["icon"]}]
			},
			"html": "<iframe src=\"https://example.com/embed\"></iframe>"
		}`))
	}))
	defer server.Close()

	resolver := New(server.URL, WithAPIKey("secret"))

	result, err := resolver.Resolve(context.Background(), "https://example.com/talk")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "A Talk", result.Title)
	assert.Equal(t, "About things", result.Description)
	assert.Equal(t, "https://example.com/talk", result.CanonicalURL)
	assert.Equal(t, "Ada", result.Author)
	assert.Equal(t, "Example", result.Site)
	assert.Equal(t, `<iframe src="https://example.com/embed"></iframe>`, result.RawMarkup)
	require.Len(t, result.Thumbnails, 1)
	assert.Equal(t, "https://example.com/t.jpg", result.Thumbnails[0].HRef)
	require.Len(t, result.Icons, 1)
	assert.Equal(t, "https://example.com/i.png", result.Icons[0].HRef)

	assert.Equal(t, []string{"https://example.com/talk"}, gotQuery["url"])
	assert.Equal(t, []string{"secret"}, gotQuery["api_key"])
}

func TestResolve_EmptyPayloadSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	result, err := New(server.URL).Resolve(context.Background(), "https://example.com/bare")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Title)
	assert.Empty(t, result.RawMarkup)
	assert.Nil(t, result.Thumbnails)
}

func TestResolve_APIKeyOmittedWhenUnset(t *testing.T) {
	var hasKey bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.URL.Query()["api_key"]
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := New(server.URL).Resolve(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.False(t, hasKey)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr error
	}{
		{
			name: "error payload maps to upstream error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error": "URL is not supported"}`))
			},
			expectedErr: simplecanvas.ErrUpstreamError,
		},
		{
			name: "server error status maps to upstream error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedErr: simplecanvas.ErrUpstreamError,
		},
		{
			name: "undecodable body maps to invalid response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json at all`))
			},
			expectedErr: simplecanvas.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			result, err := New(server.URL).Resolve(context.Background(), "https://example.com")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.expectedErr)

			var resolveErr *simplecanvas.ResolveError
			require.ErrorAs(t, err, &resolveErr)
			assert.Equal(t, "https://example.com", resolveErr.URL)
		})
	}
}

func TestResolve_UnreachableServiceIsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens on this address anymore

	result, err := New(server.URL).Resolve(context.Background(), "https://example.com")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, simplecanvas.ErrNetworkFailure)
}

func TestResolve_InvalidURLNeverHitsNetwork(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	resolver := New(server.URL)

	for _, raw := range []string{"", "notaurl", "ftp://example.com/file", "https://", "://bad"} {
		result, err := resolver.Resolve(context.Background(), raw)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, simplecanvas.ErrInvalidSourceURL, "url %q", raw)
	}
	assert.False(t, called)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	resolver := New("")
	assert.Equal(t, DefaultEndpoint, resolver.endpoint)
}
