package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"mfbox/config"
	"mfbox/logger"
	"mfbox/repository"
)

// Start initializes and starts the HTTP server, blocking until SIGINT or
// SIGTERM, then shutting down gracefully.
func Start(cfg *config.Config) {
	srv := &http.Server{
		Addr:        cfg.ServerAddr,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: large audio files over slow links legitimately
		// take longer than any fixed bound.
		IdleTimeout: 120 * time.Second,
	}

	ensureDirExists(cfg.AppDir)
	ensureDirExists(cfg.AssetsPath())

	repo := repository.NewLibraryRepository(cfg.LibraryPath())
	apiHandler, err := NewAPIHandler(cfg.AppDir, repo)
	if err != nil {
		logger.Fatal("failed to load library", logger.ErrorField(err))
	}
	assetHandler := NewAssetHandler(cfg.AssetsPath())

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if err := repo.Watch(apiHandler.Reload, stopWatch); err != nil {
		logger.Warn("library watcher unavailable", logger.ErrorField(err))
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/library", apiHandler.GetLibraryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/cache/size", apiHandler.GetCacheSizeHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/cache", apiHandler.ClearCacheHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/storage/size", apiHandler.GetStorageSizeHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/version", apiHandler.VersionHandler).Methods(http.MethodGet)
	router.HandleFunc("/assets/{path:.*}", assetHandler.ServeHTTP).Methods(http.MethodGet, http.MethodHead)

	srv.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("appDir", cfg.AppDir))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

// corsMiddleware mirrors the browser-facing policy: the player runs on a
// different origin and needs Range and Content-Range to pass through.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("failed to check directory", logger.String("path", path), logger.ErrorField(err))
	}
}
