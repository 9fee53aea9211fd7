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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tippingchain/txhistory/internal/admin"
	"github.com/tippingchain/txhistory/internal/config"
	"github.com/tippingchain/txhistory/internal/history"
	"github.com/tippingchain/txhistory/internal/storage"
	"github.com/tippingchain/txhistory/internal/storage/badgerkv"
	"github.com/tippingchain/txhistory/internal/storage/file"
	"github.com/tippingchain/txhistory/internal/storage/memory"
	redisbackend "github.com/tippingchain/txhistory/internal/storage/redis"
	"github.com/tippingchain/txhistory/internal/storage/resilient"
	"github.com/tippingchain/txhistory/internal/tracing"
)

func main() {
	// Setup logger
	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting historyd",
		"backend", cfg.Storage.Backend,
		"storage_key", cfg.Storage.Key,
		"admin_port", cfg.Server.AdminPort,
		"metrics_port", cfg.Server.MetricsPort,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing
	shutdownTracing, err := tracing.Init(ctx, "txhistory", cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	backend, err := newBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage backend", "error", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("backend close error", "error", err)
		}
	}()

	store := history.New(backend, logger, history.WithStorageKey(cfg.Storage.Key))

	rl := admin.NewRateLimitMiddleware(logger)
	defer rl.Stop()

	handler := admin.MetricsMiddleware(
		admin.AuditMiddleware(logger,
			rl.Wrap(admin.NewServer(store, logger).Handler()),
		),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runServer(gCtx, "admin", cfg.Server.AdminPort, handler, logger)
	})
	g.Go(func() error {
		return runMetricsServer(gCtx, cfg.Server.MetricsPort, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("historyd exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("historyd stopped")
}

func newBackend(cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		return file.New(cfg.Storage.FileDir)
	case config.BackendBadger:
		return badgerkv.Open(cfg.Storage.BadgerPath)
	case config.BackendRedis:
		backend, err := redisbackend.New(cfg.Storage.RedisURL)
		if err != nil {
			return nil, err
		}
		// Redis is the one backend that crosses the network, so it gets
		// retries and a circuit breaker.
		return resilient.Wrap(backend, logger, resilient.Config{}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Storage.Backend)
	}
}

func runMetricsServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())
	return runServer(ctx, "metrics", port, mux, logger)
}

func runServer(ctx context.Context, name string, port int, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("server shutdown error", "server", name, "error", err)
		}
	}()

	logger.Info("server started", "server", name, "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
