package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"mfbox/core/cache"
	"mfbox/logger"
	"mfbox/model"
	"mfbox/repository"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// APIHandler serves the library and maintenance endpoints. It keeps the
// library in memory and reloads it when the repository watcher reports an
// external change.
type APIHandler struct {
	appDir string
	repo   *repository.LibraryRepository

	mu  sync.RWMutex
	lib *model.Library
}

// NewAPIHandler loads the library and returns the handler.
func NewAPIHandler(appDir string, repo *repository.LibraryRepository) (*APIHandler, error) {
	lib, err := repo.Load()
	if err != nil {
		return nil, err
	}
	return &APIHandler{appDir: appDir, repo: repo, lib: lib}, nil
}

// Reload re-reads the library from disk. Called from the fsnotify watcher.
func (h *APIHandler) Reload() {
	lib, err := h.repo.Load()
	if err != nil {
		logger.Warn("library reload failed", logger.ErrorField(err))
		return
	}
	h.mu.Lock()
	h.lib = lib
	h.mu.Unlock()
}

func (h *APIHandler) library() *model.Library {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lib
}

// GetLibraryHandler returns the current library JSON.
func (h *APIHandler) GetLibraryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library())
}

// GetCacheSizeHandler reports the reclaimable bytes under the asset root.
func (h *APIHandler) GetCacheSizeHandler(w http.ResponseWriter, r *http.Request) {
	size, err := cache.Size(h.appDir, h.library())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"size": size})
}

// ClearCacheHandler deletes every cache-eligible file.
func (h *APIHandler) ClearCacheHandler(w http.ResponseWriter, r *http.Request) {
	if err := cache.Clear(h.appDir, h.library()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStorageSizeHandler reports total bytes held by assets plus the
// library file.
func (h *APIHandler) GetStorageSizeHandler(w http.ResponseWriter, r *http.Request) {
	size, err := cache.StorageSize(h.appDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"size": size})
}

// VersionHandler reports the build version.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response failed", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger.Error("request failed", logger.Int("status", status), logger.ErrorField(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
