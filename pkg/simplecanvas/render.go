package simplecanvas

import (
	"bytes"
	"fmt"
	"html/template"
)

// RenderMode selects how a tile's content is presented.
type RenderMode string

// Render mode constants (typed).
const (
	// RenderModeBareLink renders the raw source URL as a plain link.
	RenderModeBareLink RenderMode = "bare_link"

	// RenderModeTrustedMarkup renders the service-provided HTML fragment
	// inside a sandboxed embedding boundary.
	RenderModeTrustedMarkup RenderMode = "trusted_markup"

	// RenderModeMetadataCard renders a card from the structured metadata.
	RenderModeMetadataCard RenderMode = "metadata_card"
)

// ChooseRenderMode decides the rendering mode for an embed result.
//
// The decision table, in order: no embed renders a bare link; a non-empty
// raw-markup fragment renders as trusted markup; otherwise a metadata card
// when at least one of title, description or thumbnail is present, falling
// back to a bare link when none are.
func ChooseRenderMode(embed *EmbedResult) RenderMode {
	if embed == nil {
		return RenderModeBareLink
	}
	if embed.RawMarkup != "" {
		return RenderModeTrustedMarkup
	}
	if embed.Title != "" || embed.Description != "" || embed.ThumbnailURL() != "" {
		return RenderModeMetadataCard
	}
	return RenderModeBareLink
}

// Raw markup only ever originates from the single configured resolution
// service (see EmbedResolver); it is still never inlined into the host
// document. The srcdoc attribute is escaped by html/template and the iframe
// sandbox keeps the fragment's scripts and styles from escaping into the
// hosting page.
const (
	bareLinkTemplate = `<div class="tile tile-link"><a href="{{.SourceURL}}" target="_blank" rel="noopener noreferrer">{{.SourceURL}}</a></div>`

	trustedMarkupTemplate = `<div class="tile tile-embed"><iframe sandbox="allow-scripts allow-popups" referrerpolicy="no-referrer" srcdoc="{{.Embed.RawMarkup}}"></iframe></div>`

	metadataCardTemplate = `<div class="tile tile-card">
{{- with .Embed.Title}}<h3>{{.}}</h3>{{end -}}
{{- with .Embed.Description}}<p>{{.}}</p>{{end -}}
{{- with .Embed.ThumbnailURL}}<img src="{{.}}" alt="{{or $.Embed.Title "Preview"}}">{{end -}}
<a href="{{.SourceURL}}" target="_blank" rel="noopener noreferrer">Visit</a></div>`

	descriptionTemplate = `<div class="tile-description"><p>{{.Description}}</p></div>`
)

// Renderer produces HTML fragments for tiles. The zero value is not usable;
// construct with NewRenderer.
type Renderer struct {
	bareLink      *template.Template
	trustedMarkup *template.Template
	metadataCard  *template.Template
	description   *template.Template
}

// NewRenderer creates a renderer with the built-in tile templates.
func NewRenderer() *Renderer {
	return &Renderer{
		bareLink:      template.Must(template.New("bare_link").Parse(bareLinkTemplate)),
		trustedMarkup: template.Must(template.New("trusted_markup").Parse(trustedMarkupTemplate)),
		metadataCard:  template.Must(template.New("metadata_card").Parse(metadataCardTemplate)),
		description:   template.Must(template.New("description").Parse(descriptionTemplate)),
	}
}

// RenderTile renders one tile to an HTML fragment according to its render
// mode, followed by the owner's annotation when present.
func (r *Renderer) RenderTile(tile *ContentTile) (template.HTML, error) {
	var tmpl *template.Template
	switch mode := ChooseRenderMode(tile.Embed); mode {
	case RenderModeBareLink:
		tmpl = r.bareLink
	case RenderModeTrustedMarkup:
		tmpl = r.trustedMarkup
	case RenderModeMetadataCard:
		tmpl = r.metadataCard
	default:
		return "", fmt.Errorf("unknown render mode %q", mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tile); err != nil {
		return "", fmt.Errorf("render tile %s: %w", tile.ID, err)
	}
	if tile.Description != "" {
		if err := r.description.Execute(&buf, tile); err != nil {
			return "", fmt.Errorf("render tile %s description: %w", tile.ID, err)
		}
	}
	return template.HTML(buf.String()), nil
}
