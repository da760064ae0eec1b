// Package webui embeds the single-page editor served at the server
// root. The page talks to the session API and its SSE stream; the Go
// side only hands out static bytes.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded editor page. The filesystem is rooted so
// /index.html resolves at /.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("webui: embedded static root missing: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
