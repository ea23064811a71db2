package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built frontend. Unknown non-API paths fall back to
// index.html so client-side routing works; unknown API paths get JSON 404.
type StaticHandler struct {
	dir string
}

// NewStaticHandler creates a static handler over the given directory.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api") {
		respondError(w, http.StatusNotFound, "API route not found.")
		return
	}

	path := filepath.Join(h.dir, filepath.Clean(r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
