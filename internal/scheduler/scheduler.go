// Package scheduler wires up the cron job that periodically runs collector
// passes over the configured time filters.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/collector"
)

// Scheduler wraps robfig/cron around the collector worker.
type Scheduler struct {
	cron        *cron.Cron
	worker      *collector.Worker
	timeFilters []string
	spec        string // cron spec, e.g. "@every 24h"
	log         *zap.Logger
}

// New creates a Scheduler that fires every intervalHours hours, running one
// collector pass per configured time filter each tick.
func New(worker *collector.Worker, timeFilters []string, intervalHours int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		worker:      worker,
		timeFilters: timeFilters,
		spec:        fmt.Sprintf("@every %dh", intervalHours),
		log:         log,
	}
}

// Start registers the job and starts the scheduler. Also runs one collection
// immediately so the store is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	go s.RunOnce(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cron stopped")
}

// RunOnce runs one collector pass per configured time filter. A failing pass
// does not abort the remaining filters.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Info("collection cycle started", zap.Strings("time_filters", s.timeFilters))

	for _, filter := range s.timeFilters {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.worker.RunPass(ctx, filter); err != nil {
			s.log.Error("collector pass failed",
				zap.String("time_filter", filter),
				zap.Error(err))
		}
	}

	s.log.Info("collection cycle complete")
}
