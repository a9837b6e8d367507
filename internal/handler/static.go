package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built web client and falls back to index.html for
// client-side routes. Unknown /api/ paths get a 404 instead of the client.
type SPAHandler struct {
	staticDir string
	prefix    string
	indexFile string
}

func NewSPAHandler(staticDir, prefix string) *SPAHandler {
	return &SPAHandler{
		staticDir: staticDir,
		prefix:    strings.TrimRight(prefix, "/"),
		indexFile: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := strings.TrimPrefix(r.URL.Path, h.prefix)
	urlPath = strings.TrimPrefix(path.Clean("/"+urlPath), "/")

	if urlPath == "api" || strings.HasPrefix(urlPath, "api/") {
		writeError(w, notFound("Route"))
		return
	}

	if urlPath != "" {
		filePath := filepath.Join(h.staticDir, filepath.FromSlash(urlPath))
		info, err := os.Stat(filePath)
		if err == nil && !info.IsDir() {
			http.ServeFile(w, r, filePath)
			return
		}
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, indexPath)
}

func StaticFileServer(staticDir, prefix string) http.Handler {
	return NewSPAHandler(staticDir, prefix)
}
