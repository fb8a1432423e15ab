// Package site serves the office TV display, a static page that polls /tv.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("display site serve failed")
)

// Register attaches the display routes to mux.
// Routes:
//
//	GET /          -> redirect to /display/
//	GET /display/  -> embedded display page and assets
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /display/", http.StripPrefix("/display", http.FileServer(FS())))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/display/", http.StatusFound)
	})
}
