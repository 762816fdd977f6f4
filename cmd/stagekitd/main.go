// Command stagekitd serves the block-exercise feedback cycle over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockyard/stagekit/internal/config"
	"github.com/blockyard/stagekit/internal/daemon"
	"github.com/blockyard/stagekit/internal/level"
	"github.com/blockyard/stagekit/internal/progress"
	"github.com/blockyard/stagekit/internal/queue"
	"github.com/blockyard/stagekit/internal/report"
	"github.com/blockyard/stagekit/internal/repository"
	"github.com/blockyard/stagekit/internal/storage/local"
	"github.com/blockyard/stagekit/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	setupLogging(cfg.Debug)

	registry := level.NewRegistry(level.NewLoader(cfg.LevelsPath))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	slog.Info("levels loaded", "tracks", len(registry.ListTracks()), "path", cfg.LevelsPath)

	stores, closeStore, err := setupProgressStores(cfg)
	if err != nil {
		return fmt.Errorf("setup progress store: %w", err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	serverCfg := daemon.ServerConfig{
		Config:   cfg,
		Registry: registry,
		Stores:   stores,
		Logger:   slog.Default(),
	}

	// Optional backends degrade to disabled when unreachable.
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := repository.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			slog.Warn("postgres unavailable, attempt recording disabled", "error", err)
		} else {
			defer db.Close()
			attempts := repository.NewAttemptRepository(db)
			if err := attempts.EnsureSchema(context.Background()); err != nil {
				slog.Warn("attempt schema not ready, recording disabled", "error", err)
			} else {
				serverCfg.Attempts = attempts
			}
		}
	}

	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			slog.Warn("rabbitmq unavailable, telemetry disabled", "error", err)
		} else {
			defer conn.Close()
			serverCfg.Producer = queue.NewProducer(conn)
		}
	}

	if cfg.ReportEndpoint != "" {
		serverCfg.Reporter = report.NewClient(cfg.ReportEndpoint, slog.Default())
	}

	server := daemon.NewServer(serverCfg)

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// setupProgressStores wires progress persistence: SQLite when a path is
// configured, else per-session JSON files.
func setupProgressStores(cfg *config.Config) (daemon.StoreFactory, func() error, error) {
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("progress store ready", "backend", "sqlite", "path", cfg.DBPath)
		factory := func(sessionID string) progress.Store {
			return sqlite.NewProgressStore(db, sessionID)
		}
		return factory, db.Close, nil
	}

	slog.Info("progress store ready", "backend", "local", "path", cfg.DataPath)
	factory := func(sessionID string) progress.Store {
		store, err := local.NewStore(cfg.DataPath, sessionID)
		if err != nil {
			slog.Warn("local progress store unavailable", "error", err)
			return nil
		}
		return store
	}
	return factory, nil, nil
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
