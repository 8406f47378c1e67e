package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/vpl/internal/auth"
	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
	"github.com/JonMunkholm/vpl/internal/logging"
	"github.com/JonMunkholm/vpl/internal/store/memory"
	"github.com/JonMunkholm/vpl/internal/store/postgres"
	"github.com/JonMunkholm/vpl/internal/telemetry"
	"github.com/JonMunkholm/vpl/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Database.Driver,
		"upload_dir", cfg.Upload.Dir,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"telemetry_enabled", cfg.Telemetry.Enabled,
	)

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	photos, err := core.NewPhotoStore(cfg.Upload.Dir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	gate, err := auth.NewGate(cfg.Admin)
	if err != nil {
		slog.Error("failed to configure admin login", "error", err)
		os.Exit(1)
	}

	limiter := core.NewSubmitLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(store, photos, limiter, slog.Default())
	server := web.NewServer(cfg, service, photos, gate)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(server, limiter, stop, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server stopped", "error", err)
		return
	}
	slog.Info("server stopped")
}

// httpServer is the part of web.Server that serve drives.
type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until a signal arrives on stop, then shuts it down. It
// returns only after in-flight requests and registrations have finished or
// timeout has passed, so the caller's deferred closers never race a handler.
func serve(srv httpServer, limiter *core.SubmitLimiter, stop <-chan os.Signal, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop

		slog.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Stop accepting connections and wait for running handlers
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Shutdown gives up at the deadline; report what is still running
		if n := limiter.Active(); n > 0 {
			slog.Info("waiting for registrations to complete", "active", n)
			if err := limiter.WaitForDrain(ctx); err != nil {
				slog.Warn("registrations did not complete in time", "error", err)
			} else {
				slog.Info("all registrations completed")
			}
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// openStore connects the configured record store and returns its closer.
func openStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	if strings.ToLower(cfg.Database.Driver) == config.DriverMemory {
		slog.Warn("using in-memory store, registrations are lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		slog.Info("database migrations applied")
	}

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return postgres.New(pool), pool.Close, nil
}
