package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const version = "1.0.0"

// preload loads the CSV once before serving so that a bad file or column
// configuration stops the process instead of failing every request.
func preload(analytics *services.Analytics, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	t, err := analytics.Table(ctx)
	if err != nil {
		return err
	}
	logger.Info("sales data loaded",
		"file", t.Source,
		"rows", len(t.Rows),
		"dropped", t.DroppedRows,
		"columns", t.Columns.Names,
		"duration", time.Since(start),
	)
	return nil
}

func newAnalytics(cfg *config.Config, logger *slog.Logger) *services.Analytics {
	loader := services.NewLoader(cfg.Data, logger)
	store := services.NewStore(loader, cfg.Data.CSVFile, logger)
	return services.NewAnalytics(store, services.Options{
		DefaultCountries: cfg.Dashboard.DefaultCountries,
		TopN:             cfg.Dashboard.TopN,
		PreviewRows:      cfg.Dashboard.PreviewRows,
	}, logger)
}

func newHandler(cfg *config.Config, analytics *services.Analytics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"csv_file", cfg.Data.CSVFile,
		"addr", cfg.Address(),
	)

	analytics := newAnalytics(cfg, logger)
	if err := preload(analytics, cfg.Data.LoadTimeout, logger); err != nil {
		logger.Error("failed to load sales data", "file", cfg.Data.CSVFile, "error", err)
		os.Exit(1)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, rateLimiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping rate limiter")
		rateLimiter.Stop()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
