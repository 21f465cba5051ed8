// Package simplecanvas provides a reusable library for arranging
// externally-sourced content tiles on a free-form grid canvas.
//
// It exposes a Service that orchestrates tile persistence and batch layout
// updates, a Canvas that owns the in-memory tile state of one open editing
// session, an EmbedResolver abstraction over a third-party link-preview
// service, and a Renderer that turns resolved embeds into safe HTML
// fragments. Repository implementations (memory, Postgres) and the iframely
// resolver live in subpackages.
//
// Trust Boundary
//
// Raw embed markup is only ever produced by the single configured upstream
// resolution service. The renderer never inlines that markup into a host
// document; it is emitted inside a sandboxed iframe so scripts and styles
// cannot escape into the hosting page.
package simplecanvas
