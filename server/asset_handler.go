package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"mfbox/logger"
)

// AssetHandler streams files from the asset root with HTTP range support,
// so audio and video elements can seek without fetching the whole file.
// Mounted at /assets/, so a stored relative path like
// assets/bilibili/audios/x.mp3 is reachable at the URL of the same shape.
type AssetHandler struct {
	root string
}

// NewAssetHandler creates an AssetHandler rooted at the given directory.
func NewAssetHandler(root string) *AssetHandler {
	return &AssetHandler{root: root}
}

// mimeTypes maps file extensions to content types. Unknown extensions fall
// through to application/octet-stream.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".json": "application/json",
	".txt":  "text/plain",
}

func mimeType(path string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "application/octet-stream"
}

// ServeHTTP resolves the request path under the asset root and streams it.
// All response paths are structured errors; attacker-influenced input
// (the path and the Range header) is validated before use.
func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	if rel == "" {
		rel = strings.TrimPrefix(r.URL.Path, "/assets/")
	}

	full, ok := h.resolve(rel)
	if !ok {
		http.Error(w, "Invalid asset path", http.StatusBadRequest)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logger.Error("open asset failed", logger.String("path", rel), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	size := info.Size()

	w.Header().Set("Content-Type", mimeType(full))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			if _, err := io.Copy(w, f); err != nil {
				logger.Debug("asset stream interrupted", logger.String("path", rel), logger.ErrorField(err))
			}
		}
		return
	}

	br, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := f.Seek(br.start, io.SeekStart); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Range", br.contentRange(size))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", br.length()))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		if _, err := io.CopyN(w, f, br.length()); err != nil {
			logger.Debug("ranged asset stream interrupted", logger.String("path", rel), logger.ErrorField(err))
		}
	}
}

// resolve joins the request path under the asset root, rejecting anything
// that would escape it.
func (h *AssetHandler) resolve(rel string) (string, bool) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || strings.Contains(rel, "..") {
		return "", false
	}
	full := filepath.Join(h.root, filepath.FromSlash(rel))
	root := filepath.Clean(h.root) + string(os.PathSeparator)
	if !strings.HasPrefix(full, root) {
		return "", false
	}
	return full, true
}
