package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"crmcore/internal/config"
	"crmcore/internal/core"
	"crmcore/internal/logging"
	"crmcore/internal/metrics"
	"crmcore/internal/store"
	"crmcore/internal/store/memory"
	"crmcore/internal/store/postgres"
	"crmcore/internal/store/sqlite"
	"crmcore/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars).
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"store_driver", cfg.Store.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
	)

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		slog.Error("failed to ping store", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}

	core.MaxImportBytes = cfg.Import.MaxFileSize

	rec := metrics.NewRecorder()
	service := core.NewService(st, core.Options{
		Metrics:              rec,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportMaxWait:        cfg.Import.MaxWaitTime,
		DefaultPageSize:      cfg.Paging.DefaultPageSize,
		MaxPageSize:          cfg.Paging.MaxPageSize,
	})

	server := web.NewServer(service, rec, cfg)

	// Graceful shutdown: let in-flight imports commit, then stop the server.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore builds the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case store.DriverMemory:
		return memory.New(), nil

	case store.DriverSQLite:
		return sqlite.Open(cfg.Store.SQLitePath)

	case store.DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Store.MaxConns)
		poolConfig.MinConns = int32(cfg.Store.MinConns)
		poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}

		st, err := postgres.Open(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}

		if u, err := url.Parse(cfg.Store.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
