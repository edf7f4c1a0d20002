// Package assets serves the gallery and admin panel static files.
package assets

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Handler serves files from dir. Directory requests resolve to index.html,
// and unknown paths fall back to the root index so the gallery owns routing
// for its own pages.
type Handler struct {
	dir string
}

// New builds a Handler rooted at dir.
func New(dir string) *Handler {
	return &Handler{dir: dir}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(path.Base(name), ".") {
		http.NotFound(w, r)
		return
	}

	file := filepath.Join(h.dir, filepath.FromSlash(name))
	if info, err := os.Stat(file); err == nil {
		if info.IsDir() {
			index := filepath.Join(file, "index.html")
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
		} else {
			http.ServeFile(w, r, file)
			return
		}
	}

	// Extensionless paths get a .html sibling before the index fallback.
	if path.Ext(name) == "" {
		sibling := file + ".html"
		if _, err := os.Stat(sibling); err == nil {
			http.ServeFile(w, r, sibling)
			return
		}
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		http.ServeFile(w, r, index)
		return
	}
	http.NotFound(w, r)
}
