// Package main is the entry point of the pcaxis server: it wires the
// dataset registry, PX-Web client, flattening engine, water reference
// tables and the HTTP gateway, and runs the listener until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/config"
	"github.com/nikolozi2001/pcaxis-server-sub000/dataset"
	"github.com/nikolozi2001/pcaxis-server-sub000/engine"
	gatewayhttp "github.com/nikolozi2001/pcaxis-server-sub000/gateway/http"
	"github.com/nikolozi2001/pcaxis-server-sub000/health"
	"github.com/nikolozi2001/pcaxis-server-sub000/metric"
	"github.com/nikolozi2001/pcaxis-server-sub000/pkg/retry"
	"github.com/nikolozi2001/pcaxis-server-sub000/pxclient"
	"github.com/nikolozi2001/pcaxis-server-sub000/waterdata"
)

const (
	Version = "0.1.0"
	appName = "pcaxis-server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	logger.Info("starting",
		"addr", cfg.Server.Addr(), "upstream", cfg.Upstream.BaseURL,
		"config_path", cliCfg.ConfigPath)

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor(health.WithMetrics(metricsRegistry))
	monitor.ReportError("datasets", nil)

	eng, err := engine.New(registry,
		engine.WithLogger(logger),
		engine.WithMetrics(metricsRegistry),
		engine.WithBaseYear(cfg.Engine.BaseYear),
		engine.WithSeriesCacheSize(cfg.Engine.SeriesCacheSize),
	)
	if err != nil {
		return err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Upstream.RetryAttempts
	client, err := pxclient.New(cfg.Upstream.BaseURL,
		pxclient.WithTimeout(cfg.Upstream.Timeout),
		pxclient.WithRetry(retryCfg),
		pxclient.WithUserAgent(cfg.Upstream.UserAgent),
		pxclient.WithLogger(logger),
		pxclient.WithMetrics(metricsRegistry),
	)
	if err != nil {
		return err
	}

	water := loadWaterData(cfg, logger, monitor)

	gw, err := gatewayhttp.New(eng, client, registry,
		gatewayhttp.WithLogger(logger),
		gatewayhttp.WithMetrics(metricsRegistry),
		gatewayhttp.WithWaterData(water),
		gatewayhttp.WithHealthMonitor(monitor),
		gatewayhttp.WithCORSOrigins([]string{"*"}),
		gatewayhttp.WithMaxSeries(cfg.Engine.MaxSeries),
	)
	if err != nil {
		return err
	}

	return serve(cfg, gw.Handler(), logger)
}

// buildRegistry starts from the built-in dataset table and applies the
// overlay file when configured.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*dataset.Registry, error) {
	registry := dataset.DefaultRegistry()
	if cfg.Datasets.File != "" {
		if err := registry.LoadFile(cfg.Datasets.File); err != nil {
			return nil, err
		}
		logger.Info("dataset overlay applied", "path", cfg.Datasets.File, "datasets", registry.Len())
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// loadWaterData loads whichever reference tables are configured. A missing
// file degrades the component instead of refusing to start; the demographic
// endpoints do not depend on it.
func loadWaterData(cfg *config.Config, logger *slog.Logger, monitor *health.Monitor) *waterdata.Store {
	if cfg.Water.RiversFile == "" && cfg.Water.LakesFile == "" {
		return nil
	}

	store := waterdata.NewStore(logger)
	var loadErr error
	if cfg.Water.RiversFile != "" {
		if err := store.LoadRivers(cfg.Water.RiversFile); err != nil {
			logger.Error("rivers table failed to load", "path", cfg.Water.RiversFile, "error", err)
			loadErr = err
		}
	}
	if cfg.Water.LakesFile != "" {
		if err := store.LoadLakes(cfg.Water.LakesFile); err != nil {
			logger.Error("lakes table failed to load", "path", cfg.Water.LakesFile, "error", err)
			loadErr = err
		}
	}
	monitor.ReportError("waterdata", loadErr)
	return store
}

// serve runs the HTTP listener until SIGINT/SIGTERM, then drains within the
// configured shutdown timeout.
func serve(cfg *config.Config, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped cleanly")
	return nil
}
