package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKimmer/liveticker-eintracht/internal/config"
	"github.com/JonasKimmer/liveticker-eintracht/internal/datasource"
	"github.com/JonasKimmer/liveticker-eintracht/internal/log"
	"github.com/JonasKimmer/liveticker-eintracht/internal/polling"
	"github.com/JonasKimmer/liveticker-eintracht/internal/server"
	"github.com/JonasKimmer/liveticker-eintracht/internal/store"
	"github.com/JonasKimmer/liveticker-eintracht/internal/ticker"
)

func run() int {
	cfg := config.Load()

	log.Info("Starting Ticker Service",
		zap.String("port", cfg.Port),
		zap.String("backend_url", cfg.BackendURL),
		zap.String("environment", cfg.Environment),
	)

	src := datasource.NewClientWithConfig(datasource.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	})

	var feedStore *store.FeedStore
	if cfg.RedisAddr != "" {
		var err error
		feedStore, err = store.NewFeedStore(cfg.RedisAddr)
		if err != nil {
			log.Error("Failed to connect feed store", zap.Error(err))
			return 1
		}
		defer func() {
			if err := feedStore.Close(); err != nil {
				log.Error("Failed to close feed store", zap.Error(err))
			}
		}()
	} else {
		log.Info("No Redis address configured, feed snapshots disabled")
	}

	hub := server.NewHub()
	go hub.Run()

	manager := ticker.NewManager(src, ticker.Options{
		Poll: polling.Config{
			FastInterval:      cfg.FastPollInterval,
			SlowRefreshDelays: cfg.SlowRefreshDelays,
		},
		DefaultStyle: cfg.DefaultStyle,
		OnUpdate: func(update ticker.Update) {
			hub.Broadcast("feed_update", update)
			if feedStore != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := feedStore.SaveSnapshot(ctx, update); err != nil {
					log.Warn("Failed to save feed snapshot", zap.Error(err))
				}
			}
		},
	})
	defer manager.Deactivate()

	var snapshots server.SnapshotSource
	if feedStore != nil {
		snapshots = feedStore
	}
	srv := server.New(cfg, manager, src, snapshots, hub)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("Shutdown signal received, stopping server")
	case <-errChan:
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down server", zap.Error(err))
	}
	log.Info("Ticker service stopped")
	return 0
}

func main() {
	// Initialize global logger
	if err := log.Init(config.Load().IsDevelopment()); err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	os.Exit(run())
}
