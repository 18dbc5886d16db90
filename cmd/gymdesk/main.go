package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ryanbastic/gymdesk/internal/api"
	"github.com/ryanbastic/gymdesk/internal/circuitbreaker"
	"github.com/ryanbastic/gymdesk/internal/config"
	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/export"
	"github.com/ryanbastic/gymdesk/internal/hal"
	"github.com/ryanbastic/gymdesk/internal/metrics"
	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/resolve"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hypermedia API client
	clientOpts := []hal.Option{
		hal.WithHTTPClient(&http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: metrics.InstrumentTransport(http.DefaultTransport),
		}),
		hal.WithLogger(logger),
	}
	if cfg.BreakerMaxFailures > 0 {
		breaker := circuitbreaker.New(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
			circuitbreaker.WithFailureFilter(hal.IsUpstreamFailure),
			circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
				metrics.SetBreakerState(int(to))
				logger.Warn("upstream circuit breaker state changed", "from", from.String(), "to", to.String())
			}),
		)
		clientOpts = append(clientOpts, hal.WithBreaker(breaker))
	}
	client := hal.New(cfg.APIBaseURL, clientOpts...)

	if err := client.Ping(ctx); err != nil {
		// Not fatal: readiness reports it and the boards retry on reload.
		logger.Warn("hypermedia API not reachable at startup", "url", cfg.APIBaseURL, "error", err)
	}

	// Boards
	boardOpts := []desk.Option{
		desk.WithLogger(logger),
		desk.WithLocation(cfg.Location()),
	}
	if cfg.ExportColumnsPath != "" {
		cols, err := config.LoadColumnConfig(cfg.ExportColumnsPath, model.CustomerFields)
		if err != nil {
			logger.Error("failed to load export columns", "path", cfg.ExportColumnsPath, "error", err)
			os.Exit(1)
		}
		columns := make([]export.Column, len(cols.Columns))
		for i, c := range cols.Columns {
			columns[i] = export.Column{Field: c.Field, Header: c.Header}
		}
		boardOpts = append(boardOpts, desk.WithCustomerColumns(columns))
		logger.Info("export columns loaded", "path", cfg.ExportColumnsPath, "columns", len(columns))
	}

	resolver := resolve.New(client,
		resolve.WithConcurrency(cfg.ResolveConcurrency),
		resolve.WithLogger(logger),
	)
	customers := desk.NewCustomerBoard(client, boardOpts...)
	trainings := desk.NewTrainingBoard(client, resolver, boardOpts...)

	if err := customers.Load(ctx); err != nil {
		logger.Warn("initial customer load failed", "error", err)
	}
	if err := trainings.Load(ctx); err != nil {
		logger.Warn("initial training load failed", "error", err)
	}

	// Start HTTP server
	handler := api.NewServer(logger, api.Deps{
		Customers: customers,
		Trainings: trainings,
		Backends:  map[string]api.Pinger{"hypermedia_api": client},
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
