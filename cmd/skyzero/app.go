package main

import (
	"context"
	"fmt"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/api"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/factory"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/report"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/store/sqlite"
)

// app is the wired backend: database, planner and API handler.
type app struct {
	store   *sqlite.Store
	planner *offset.Planner
	handler *api.Handler
}

// openApp opens the database, seeds activity data on first start, loads the
// saved strategies and computes the first emissions snapshot.
func (c *cli) openApp(ctx context.Context) (*app, error) {
	store, err := sqlite.New(c.cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	seeded, err := store.SeedActivities(ctx, c.cfg.SeedActivities())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("seed activity data: %w", err)
	}
	if seeded {
		c.logger.Info().Str("db", c.cfg.Server.DBPath).Msg("seeded activity data")
	}

	registry, err := factory.NewOffsetTypeFactory().BuildRegistry(c.cfg.OffsetTypes)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("offset types: %w", err)
	}

	planner := offset.NewPlanner(ctx, registry, offset.NewStatePersister(store),
		offset.WithLogger(c.logger.With().Str("component", "planner").Logger()))

	h := api.NewHandler(store, planner, c.logger)
	h.Factors = c.cfg.EmissionFactors()

	var renderer report.Renderer = report.NewPDFRenderer()
	if url := c.cfg.Report.ServiceURL; url != "" {
		renderer = report.NewHTTPRenderer(url, c.cfg.Report.Timeout)
		c.logger.Info().Str("url", url).Msg("using remote document service")
	}
	h.Exporter = report.NewExporter(renderer, c.cfg.Report.Timeout, c.logger)
	h.Documents = renderer

	if _, err := h.RefreshSnapshot(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("initial emissions snapshot failed")
	}

	return &app{store: store, planner: planner, handler: h}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
