// Package site serves the embedded play page.
package site

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Mux is the routing surface Register needs. *http.ServeMux and
// chi.Router both satisfy it.
type Mux interface {
	Handle(pattern string, h http.Handler)
}

// Assets served next to the index page.
var assets = []string{"/app.js", "/style.css"}

// FS returns the embedded site rooted at its static directory.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Register attaches the play page and its assets to mux.
func Register(_ context.Context, mux Mux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("/", files)
	for _, a := range assets {
		mux.Handle(a, files)
	}
}
