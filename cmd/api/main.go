package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/therapy-booking/cmd/mainconfig"
	"github.com/wolfman30/therapy-booking/internal/api/router"
	"github.com/wolfman30/therapy-booking/internal/app/bootstrap"
	"github.com/wolfman30/therapy-booking/internal/calendar"
	appconfig "github.com/wolfman30/therapy-booking/internal/config"
	httpmiddleware "github.com/wolfman30/therapy-booking/internal/http/middleware"
	"github.com/wolfman30/therapy-booking/internal/observability/metrics"
	"github.com/wolfman30/therapy-booking/internal/widget"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting therapy-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.PracticeTimezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
		app.close()
		os.Exit(1)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		app.close()
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type application struct {
	handler http.Handler
	close   func()
}

// setupMetrics returns the /metrics handler and the widget collectors,
// registered on a private registry with the Go and process collectors.
func setupMetrics() (http.Handler, *metrics.WidgetMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWidgetMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), m
}

// buildApp wires configuration into the HTTP handler. Background work it
// starts stops with ctx.
func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	loc, err := time.LoadLocation(cfg.PracticeTimezone)
	if err != nil {
		return nil, fmt.Errorf("load practice timezone %q: %w", cfg.PracticeTimezone, err)
	}
	policy := calendar.NewPolicy(loc, nil)

	metricsHandler, widgetMetrics := setupMetrics()

	store, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var clients bootstrap.AWSClients
	if cfg.UsesAWS() {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		clients = bootstrap.NewAWSClients(awsCfg, cfg)
	}

	dispatcher, err := bootstrap.BuildDispatcher(cfg, clients, widgetMetrics, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := widget.NewService(widget.ServiceConfig{
		Store:     store,
		StoreName: store.Name,
		Policy:    policy,
		Deliverer: dispatcher,
		Metrics:   widgetMetrics,
		Logger:    logger,
	})

	if store.Sweeper != nil {
		go store.Sweeper.Run(ctx, time.Minute)
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(ctx, 5*time.Minute)
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		WidgetHandler:      widget.NewHandler(svc, logger),
		MetricsHandler:     metricsHandler,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return &application{
		handler: handler,
		close: func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close session store", "error", err)
			}
		},
	}, nil
}
