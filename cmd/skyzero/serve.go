package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/api"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Long: `Runs the HTTP API consumed by the dashboard, refreshes the emissions
snapshot on an interval and shuts down gracefully on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context())
		},
	}
}

// runServe blocks until ctx is cancelled or a component fails.
//
// SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for active requests (server.shutdown_timeout)
//  3. Stop the refresher and limiter sweeper
//  4. Close the database
func (c *cli) runServe(ctx context.Context) error {
	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := api.NewExportRateLimiter(c.cfg.Server.ExportRatePerMinute, 2)
	router := api.NewRouter(a.handler, api.RouterOptions{
		AllowedOrigins: c.cfg.Server.AllowedOrigins,
		ExportLimiter:  limiter,
	})

	server := &http.Server{
		Addr:         c.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.logger.Info().
			Str("addr", server.Addr).
			Str("db", c.cfg.Server.DBPath).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return api.NewSnapshotRefresher(a.handler, c.cfg.Server.RefreshInterval).Run(gctx)
	})

	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Info().Msg("server stopped")
	return nil
}
