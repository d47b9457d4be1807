package report

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// Exporter runs exports through a Renderer. Only the newest call's result
// is delivered; older calls that finish later get ErrExportSuperseded.
type Exporter struct {
	renderer Renderer
	timeout  time.Duration
	logger   zerolog.Logger
	seq      atomic.Uint64
}

func NewExporter(renderer Renderer, timeout time.Duration, logger zerolog.Logger) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{renderer: renderer, timeout: timeout, logger: logger}
}

// Export builds the request from one planner state and renders it once.
func (e *Exporter) Export(ctx context.Context, baseline offset.Amount, summary offset.Summary, strategies []offset.Strategy) (Artifact, error) {
	return e.ExportRequest(ctx, BuildRequest(baseline, summary, strategies))
}

// ExportRequest renders a prepared request.
func (e *Exporter) ExportRequest(ctx context.Context, req Request) (Artifact, error) {
	n := e.seq.Add(1)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	artifact, err := e.renderer.Render(ctx, req)

	if e.seq.Load() != n {
		e.logger.Debug().Uint64("export", n).Msg("discarding superseded report export")
		return Artifact{}, ErrExportSuperseded
	}

	if err != nil {
		var failure *ExportFailure
		if !errors.As(err, &failure) {
			cause := "renderer failed"
			if errors.Is(err, context.DeadlineExceeded) {
				cause = "timed out after " + e.timeout.String()
			}
			err = &ExportFailure{Cause: cause, Err: err}
		}
		e.logger.Error().Err(err).Uint64("export", n).Msg("report export failed")
		return Artifact{}, err
	}

	if artifact.Filename == "" {
		artifact.Filename = DefaultFilename
	}
	if artifact.ContentType == "" {
		artifact.ContentType = ContentTypePDF
	}
	e.logger.Info().
		Uint64("export", n).
		Int("bytes", len(artifact.Data)).
		Int("strategies", len(req.Strategies)).
		Dur("took", time.Since(start)).
		Msg("report exported")
	return artifact, nil
}
