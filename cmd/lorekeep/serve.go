// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/logging"
	"github.com/lorekeep/lorekeep/internal/observability"
	"github.com/lorekeep/lorekeep/internal/store"
)

// readinessPingTimeout bounds one readiness probe's database ping.
const readinessPingTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operational endpoint (metrics and health probes)",
		Long: `Holds a database pool open and serves Prometheus metrics and
Kubernetes-style health probes. Readiness reflects database connectivity.`,
		RunE: runServe,
	}

	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	databaseURL, err := requireDatabaseURL(cfg)
	if err != nil {
		return err
	}

	logger := logging.Setup("lorekeep", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.Connect(ctx, databaseURL, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer pool.Close()

	logger.InfoContext(ctx, "connected to database")

	ready := func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, readinessPingTimeout)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	}

	obsServer := observability.NewServer(cfg.MetricsAddr, ready)
	obsErrChan, err := obsServer.Start()
	if err != nil {
		return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, obsErrChan, "observability")

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Serving on " + obsServer.Addr())
	logger.InfoContext(ctx, "serve ready", slog.String("addr", obsServer.Addr()))

	select {
	case sig := <-sigChan:
		logger.InfoContext(ctx, "received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping observability server", slog.String("error", err.Error()))
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
