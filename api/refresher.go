/*
refresher.go - Periodic emissions snapshot refresh

PURPOSE:
  Recomputes the emissions snapshot from stored activity data on an
  interval and pushes the feed total into the planner as its baseline,
  so the offset summary tracks the latest activity data even when no
  client asks for the feed.

DESIGN:
  - Runs until its context is cancelled (serve runs it in an errgroup)
  - Refreshes once immediately on start
  - A failed refresh is logged; the planner keeps the last baseline

USAGE:
  refresher := NewSnapshotRefresher(handler, time.Minute)
  g.Go(func() error { return refresher.Run(ctx) })

SEE ALSO:
  - handlers.go: RefreshSnapshot
*/
package api

import (
	"context"
	"sync"
	"time"
)

// SnapshotRefresher periodically refreshes the handler's snapshot.
type SnapshotRefresher struct {
	Handler  *Handler
	Interval time.Duration

	mu      sync.Mutex
	lastRun time.Time
}

func NewSnapshotRefresher(handler *Handler, interval time.Duration) *SnapshotRefresher {
	return &SnapshotRefresher{Handler: handler, Interval: interval}
}

// Run refreshes immediately, then every Interval until ctx is done. A zero
// Interval refreshes once and waits for ctx.
func (sr *SnapshotRefresher) Run(ctx context.Context) error {
	sr.RunNow(ctx)

	if sr.Interval <= 0 {
		sr.Handler.Logger.Info().Msg("snapshot refresher disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(sr.Interval)
	defer ticker.Stop()
	sr.Handler.Logger.Info().Dur("interval", sr.Interval).Msg("snapshot refresher started")

	for {
		select {
		case <-ticker.C:
			sr.RunNow(ctx)
		case <-ctx.Done():
			sr.Handler.Logger.Info().Msg("snapshot refresher stopped")
			return nil
		}
	}
}

// RunNow performs one refresh.
func (sr *SnapshotRefresher) RunNow(ctx context.Context) {
	snap, err := sr.Handler.RefreshSnapshot(ctx)

	sr.mu.Lock()
	sr.lastRun = time.Now()
	sr.mu.Unlock()

	if err != nil {
		sr.Handler.Logger.Error().Err(err).Msg("emissions snapshot refresh failed")
		return
	}
	sr.Handler.Logger.Debug().
		Str("total", snap.Total.String()).
		Str("net", snap.Net.String()).
		Msg("emissions snapshot refreshed")
}

// NextRunTime returns when the next scheduled refresh will occur.
func (sr *SnapshotRefresher) NextRunTime() time.Time {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.lastRun.Add(sr.Interval)
}
