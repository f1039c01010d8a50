package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mini-rodalies-3d/ril100/internal/config"
	"github.com/mini-rodalies-3d/ril100/internal/db"
	"github.com/mini-rodalies-3d/ril100/internal/handlers"
	"github.com/mini-rodalies-3d/ril100/internal/logging"
	"github.com/mini-rodalies-3d/ril100/internal/metrics"
	"github.com/mini-rodalies-3d/ril100/internal/offline"
	"github.com/mini-rodalies-3d/ril100/internal/search"
	"github.com/mini-rodalies-3d/ril100/internal/static"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	slog.Info("configuration loaded",
		"dataset_url", cfg.DatasetURL,
		"cache_backend", cfg.CacheBackend,
		"port", cfg.Port,
		"static_dir", cfg.StaticDir,
	)

	ctx := context.Background()

	store, err := db.Open(ctx, cfg.CacheBackend, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open cache store", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	stats := metrics.NewLoadStats()
	loader := static.NewLoader(cfg, snapshotStore(store), stats)

	// A dataset that cannot be loaded leaves the server up with 503s so the
	// health endpoint can report why.
	var dataset *search.Dataset
	result, err := loader.Load(ctx)
	if err != nil {
		slog.Error("dataset unavailable", "error", err)
	} else if dataset, err = search.NewDataset(result.Records); err != nil {
		slog.Error("failed to index dataset", "error", err)
	} else {
		slog.Info("dataset ready", "records", dataset.Len(), "source", result.Source)
	}

	var shell *offline.Shell
	if cfg.StaticDir != "" && store != nil {
		shell = offline.NewShell(store, os.DirFS(cfg.StaticDir), cfg.AssetCacheVersion)
		if n, err := shell.Install(ctx); err != nil {
			slog.Warn("asset cache install failed, serving from disk", "error", err)
			shell = nil
		} else if deleted, err := shell.Activate(ctx); err != nil {
			slog.Warn("failed to delete old asset caches", "error", err)
		} else {
			slog.Info("asset cache active", "cache", shell.CacheName(), "assets", n, "deleted_caches", deleted)
		}
	}

	r := newRouter(cfg, handlers.NewSearchHandler(dataset, stats), shell)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("API server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
	}

	// Let a pending cache write-back finish before the store closes.
	loader.Wait()
	slog.Info("server stopped")
}

// snapshotStore converts store without producing a non-nil interface
// around a nil value.
func snapshotStore(store db.Store) static.SnapshotStore {
	if store == nil {
		return nil
	}
	return store
}

func newRouter(cfg *config.Config, h *handlers.SearchHandler, shell *offline.Shell) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/search", h.Search)
	r.Get("/api/entries/{code}", h.GetEntry)

	if cfg.StaticDir != "" {
		var files http.Handler = http.FileServer(http.Dir(cfg.StaticDir))
		if shell != nil {
			files = shell.Handler(files)
		}
		r.Handle("/*", files)
	}

	return r
}
