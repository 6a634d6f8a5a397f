package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	applog "conseilweb/internal/log"
	"conseilweb/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, pol, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	applog.Configure(applog.Config{Level: cfg.LogLevel})
	logger := applog.WithComponent("server")

	app := server.New(cfg, pol, server.Options{})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(server.Addr(cfg))
	}()

	policySource := cfg.PolicyFile
	if policySource == "" {
		policySource = "built-in"
	}
	logger.Info().
		Str("addr", server.Addr(cfg)).
		Str("site_url", cfg.SiteURL).
		Str("policy", policySource).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("conseilweb starting")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
