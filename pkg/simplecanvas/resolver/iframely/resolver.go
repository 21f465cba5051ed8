// Package iframely implements simplecanvas.EmbedResolver against an
// iframely-compatible embed resolution endpoint.
package iframely

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tendant/simple-canvas/pkg/simplecanvas"
)

// DefaultEndpoint is the hosted iframely API.
const DefaultEndpoint = "https://iframe.ly/api/iframely"

const defaultTimeout = 30 * time.Second

// Resolver calls the embed resolution service over HTTP. It is stateless
// and safe for concurrent use; results are never cached.
type Resolver struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAPIKey sets the api_key query parameter sent to the service.
func WithAPIKey(key string) Option {
	return func(r *Resolver) {
		r.apiKey = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// New creates a resolver for the given endpoint. An empty endpoint uses
// DefaultEndpoint.
func New(endpoint string, opts ...Option) *Resolver {
	r := &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	if r.endpoint == "" {
		r.endpoint = DefaultEndpoint
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// response is the iframely wire shape.
type response struct {
	Meta struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Canonical   string `json:"canonical"`
		Author      string `json:"author"`
		Site        string `json:"site"`
	} `json:"meta"`
	Links struct {
		Thumbnail []wireLink `json:"thumbnail"`
		Icon      []wireLink `json:"icon"`
	} `json:"links"`
	HTML  string `json:"html"`
	Error string `json:"error"`
}

type wireLink struct {
	HRef string   `json:"href"`
	Type string   `json:"type"`
	Rel  []string `json:"rel"`
}

// Resolve implements simplecanvas.EmbedResolver.
//
// The URL must be syntactically valid and absolute before any network call
// is made. Failure kinds are distinguishable with errors.Is:
// simplecanvas.ErrInvalidSourceURL, ErrNetworkFailure (service not
// reachable), ErrUpstreamError (non-2xx status or explicit error payload)
// and ErrInvalidResponse (body not decodable into the expected shape).
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*simplecanvas.EmbedResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &simplecanvas.ResolveError{URL: rawURL, Err: simplecanvas.ErrInvalidSourceURL}
	}

	query := url.Values{}
	query.Set("url", rawURL)
	if r.apiKey != "" {
		query.Set("api_key", r.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, &simplecanvas.ResolveError{URL: rawURL, Err: fmt.Errorf("%w: %v", simplecanvas.ErrNetworkFailure, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &simplecanvas.ResolveError{URL: rawURL, Err: fmt.Errorf("%w: %v", simplecanvas.ErrNetworkFailure, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &simplecanvas.ResolveError{
			URL: rawURL,
			Err: fmt.Errorf("%w: status %d", simplecanvas.ErrUpstreamError, resp.StatusCode),
		}
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &simplecanvas.ResolveError{URL: rawURL, Err: fmt.Errorf("%w: %v", simplecanvas.ErrInvalidResponse, err)}
	}

	if body.Error != "" {
		return nil, &simplecanvas.ResolveError{
			URL: rawURL,
			Err: fmt.Errorf("%w: %s", simplecanvas.ErrUpstreamError, body.Error),
		}
	}

	return toEmbedResult(&body), nil
}

func toEmbedResult(body *response) *simplecanvas.EmbedResult {
	result := &simplecanvas.EmbedResult{
		Title:        body.Meta.Title,
		Description:  body.Meta.Description,
		Author:       body.Meta.Author,
		Site:         body.Meta.Site,
		CanonicalURL: body.Meta.Canonical,
		RawMarkup:    body.HTML,
	}
	for _, l := range body.Links.Thumbnail {
		result.Thumbnails = append(result.Thumbnails, simplecanvas.EmbedLink{HRef: l.HRef, Type: l.Type, Rel: l.Rel})
	}
	for _, l := range body.Links.Icon {
		result.Icons = append(result.Icons, simplecanvas.EmbedLink{HRef: l.HRef, Type: l.Type, Rel: l.Rel})
	}
	return result
}
