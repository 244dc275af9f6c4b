package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/rssmd/internal/api"
	"github.com/dgallion1/rssmd/internal/backend"
	"github.com/dgallion1/rssmd/internal/config"
	"github.com/dgallion1/rssmd/internal/export"
	"github.com/dgallion1/rssmd/internal/feeds"
	"github.com/dgallion1/rssmd/internal/pages"
	"github.com/dgallion1/rssmd/internal/session"
	"github.com/dgallion1/rssmd/internal/version"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open session store", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	state, auth := session.NewState(store)

	// Initialize clients.
	client := backend.New(cfg.ServerURL, state, auth,
		backend.WithTimeout(cfg.HTTPTimeout),
		backend.WithLogger(log),
		backend.WithLoginRoute(cfg.LoginRoute),
		backend.WithStats(backend.NewLatencyStats(time.Hour)),
	)

	var local []feeds.Source
	maxItems := cfg.FeedMaxItems
	if cfg.FeedsFile != "" {
		var n int
		local, n, err = feeds.LoadSources(cfg.FeedsFile)
		if err != nil {
			log.Error("failed to load feeds file", "path", cfg.FeedsFile, "error", err)
			os.Exit(1)
		}
		if n > 0 {
			maxItems = n
		}
	}
	reader := feeds.NewReader(client, local,
		feeds.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		feeds.WithMaxItems(maxItems),
		feeds.WithUserAgent(cfg.FeedUserAgent),
		feeds.WithLogger(log),
	)

	album, err := export.NewDiskAlbum(cfg.AlbumDir, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		log.Error("failed to open album", "dir", cfg.AlbumDir, "error", err)
		os.Exit(1)
	}
	batches := export.NewBatchStore(cfg.BatchTTL)

	env := &pages.Env{
		API:             client,
		State:           state,
		Auth:            auth,
		Feeds:           reader,
		Saver:           export.NewSaver(album, cfg.SaveDelay, batches, log),
		Log:             log,
		LoginRoute:      cfg.LoginRoute,
		PDFTextFallback: cfg.PDFTextFallback,
		Threshold:       cfg.ScrollThreshold,
	}

	registry := api.NewRegistry(cfg.PageTTL, log)
	registry.Start(ctx, 5*time.Minute, batches.Cleanup)

	// Initialize HTTP server.
	srv := api.NewServer(env, registry, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		registry.Stop()
		if c, ok := store.(io.Closer); ok {
			c.Close()
		}
	}()

	log.Info("starting rssmd gateway",
		"port", cfg.Port,
		"backend", cfg.ServerURL,
		"session", cfg.SessionBackend,
		"version", version.Version,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionMemory:
		return session.NewMemoryStore(), nil
	case config.SessionRedis:
		return session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return session.NewFileStore(cfg.SessionFile)
	}
}
