// Package scheduler wires up the cron job that periodically triggers a
// reconciliation pass.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/ciamek94/scraper/internal/models"
)

// Runner executes one reconciliation pass.
type Runner interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// Scheduler wraps robfig/cron around the reconciler. Runs never overlap: a
// tick that fires while a pass is still in progress is skipped, keeping the
// engine single-pass.
type Scheduler struct {
	cron    *cron.Cron
	log     *slog.Logger
	runner  Runner
	spec    string
	running atomic.Bool
}

func New(log *slog.Logger, runner Runner, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		log:    log,
		runner: runner,
		spec:   spec,
	}
}

// Start registers the job and starts the scheduler. It also runs one pass
// immediately so the collections are populated without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.InfoContext(ctx, "scheduler started", "spec", s.spec)

	go s.runOnce(ctx)

	return nil
}

// Stop gracefully shuts the scheduler down.
func (s *Scheduler) Stop() {
	ctxStop := s.cron.Stop()
	<-ctxStop.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.WarnContext(ctx, "previous pass still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	report, err := s.runner.Run(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "reconciliation pass failed", "error", err)
		return
	}
	s.log.InfoContext(ctx, "reconciliation pass finished",
		"found", report.Found, "new_accepted", report.NewAccepted, "notified", report.Notified)
}
