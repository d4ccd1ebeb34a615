// Package site serves the embedded landing page.
package site

import (
	"context"
	"net/http"
)

// Register serves the landing page at / and its assets. Paths without an
// asset 404, so the catch-all does not mask API typos.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}
