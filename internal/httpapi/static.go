package httpapi

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// mimeTypes maps the extensions the game client ships to content types.
// Extensions are matched case-insensitively; anything else is served as an
// opaque byte stream.
var mimeTypes = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpe":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".ico":  "image/vnd.microsoft.icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".svgz": "image/svg+xml",
	".mp3":  "audio/mpeg",
}

// staticHandler serves the client files under root. Requests resolving
// outside root are rejected before touching the filesystem.
type staticHandler struct {
	root string
}

func newStaticHandler(root string) http.Handler {
	return &staticHandler{root: filepath.Clean(root)}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid method")
		return
	}

	rel, err := url.PathUnescape(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid path")
		return
	}
	if strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}

	full := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+rel)))
	if full != h.root && !strings.HasPrefix(full, h.root+string(filepath.Separator)) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid path")
		return
	}

	f, err := os.Open(full)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "File not found")
		return
	}
	defer f.Close()

	if info, err := f.Stat(); err != nil || info.IsDir() {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "File not found")
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(full))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	io.Copy(w, f)
}

func contentTypeFor(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
