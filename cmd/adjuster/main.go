// Package main is the entry point for the gas adjuster service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/branched-services/go-gas-adjuster/internal/api/httpapi"
	"github.com/branched-services/go-gas-adjuster/internal/config"
	"github.com/branched-services/go-gas-adjuster/internal/observability"
	"github.com/branched-services/go-gas-adjuster/pkg/adjuster"
	"github.com/branched-services/go-gas-adjuster/pkg/eth"
	"github.com/branched-services/go-gas-adjuster/pkg/health"
)

func main() {
	// Root context canceled on SIGTERM/SIGINT (12-factor: disposability)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	code := 0
	if err := run(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		code = 1
	}

	os.Exit(code)
}

func run(ctx context.Context) error {
	// Load configuration from environment (12-factor: config)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize structured logging (12-factor: logs as streams)
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// The adjuster tunables are re-read on every renewal; check them
	// once up front so a misconfigured process dies before serving.
	params := adjuster.NewEnvSource()
	interval, err := params.RenewalInterval()
	if err != nil {
		return err
	}
	scale, err := params.ScaleFactor()
	if err != nil {
		return err
	}

	slog.Info("starting gas adjuster",
		"api_addr", cfg.APIAddr,
		"health_addr", cfg.HealthAddr,
		"sample_interval", cfg.SampleInterval,
		"stats_window", cfg.StatsWindow,
		"renewal_interval", interval,
		"scale_factor", scale,
	)

	// Build dependency graph (dependency inversion)

	// 1. Eth client (HTTP for RPC calls)
	ethClient := eth.NewClient(cfg.NodeHTTPURL)
	defer ethClient.Close()

	// 2. Provider (atomic cap storage)
	provider := adjuster.NewCapProvider()

	// 3. Adjuster (samples prices, renews the cap)
	adj := adjuster.New(
		ethClient,
		ethClient, // also implements BlockReader
		params,
		provider,
		adjuster.WithSampleInterval(cfg.SampleInterval),
		adjuster.WithStatsWindow(cfg.StatsWindow),
		adjuster.WithLogger(logger),
	)

	// 4. API server
	apiServer := httpapi.NewServer(cfg.APIAddr, provider, logger)

	// 5. Health server
	healthServer := health.NewServer(cfg.HealthAddr, provider, logger)

	// Run all components concurrently
	errCh := make(chan error, 3)

	go func() {
		if err := adj.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("adjuster: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	go func() {
		if err := healthServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case err := <-errCh:
		slog.Error("component failed", "error", err)
		return err
	}

	// Graceful shutdown with timeout
	slog.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown in reverse dependency order
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api server shutdown error", "error", err)
	}

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
