package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/emircancapkan/karma-case/internal/logging"
)

// Refresher periodically reconciles the derived caches with the backend.
// Background refreshes race user-initiated mutations; last writer wins
// on the shared cache, which is accepted behavior.
type Refresher struct {
	cron *cron.Cron
}

// NewRefresher schedules refresh on the given cron spec (e.g. "@every 1m").
func NewRefresher(schedule string, logger *slog.Logger, refresh func(ctx context.Context)) (*Refresher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx := logging.WithLogger(context.Background(), logger)
		ctx, span := logging.StartSpan(ctx, "background-refresh")
		defer span.End()
		refresh(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", schedule, err)
	}

	return &Refresher{cron: c}, nil
}

// Start begins the refresh schedule.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule, waiting for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
