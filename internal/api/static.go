package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yegors/co-pilot/pkg/logger"
)

// StaticFileHandler serves the web UI from a directory on disk. Unknown
// paths fall back to index.html so client-side routing works.
type StaticFileHandler struct {
	root       string
	fileServer http.Handler
	logger     *logger.Logger
}

// NewStaticFileHandler creates a handler serving static files from dir
func NewStaticFileHandler(dir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		root:       dir,
		fileServer: http.FileServer(http.Dir(dir)),
		logger:     log.Named("static"),
	}
}

func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqPath := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if reqPath == "." {
		reqPath = "index.html"
	}

	full := filepath.Join(h.root, reqPath)
	if !strings.HasPrefix(full, filepath.Clean(h.root)) {
		http.NotFound(w, r)
		return
	}

	if info, err := os.Stat(full); err != nil || info.IsDir() {
		// SPA fallback
		http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
		return
	}

	h.fileServer.ServeHTTP(w, r)
}
