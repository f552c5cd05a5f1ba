package scheduler

import (
	"context"
	"fmt"
	"time"

	"PortWatch/internal/usecase"
	applogger "PortWatch/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the cross-region evaluation on a cron schedule, typically
// once per trading day after the bar ingest settles.
type Scheduler struct {
	cron    *cron.Cron
	advisor *usecase.AdvisorUseCase
	l       *applogger.Logger
	timeout time.Duration
}

// New creates a Scheduler around the advisor use case.
func New(advisor *usecase.AdvisorUseCase, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		advisor: advisor,
		l:       l,
		timeout: 5 * time.Minute,
	}
}

// Register wires the evaluation run under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.runAll); err != nil {
		return fmt.Errorf("register evaluation schedule %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.l != nil {
		s.l.Info("scheduler started")
	}
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.l != nil {
		s.l.Info("scheduler stopped")
	}
}

// RunNow triggers the evaluation immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runAll()
}

func (s *Scheduler) runAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rep, err := s.advisor.RunAll(ctx)
	if err != nil {
		if s.l != nil {
			s.l.Error("scheduled evaluation failed", applogger.Error(err))
		}
		return
	}
	if s.l != nil {
		s.l.Info("scheduled evaluation complete",
			applogger.Int("alerts", len(rep.Alerts)),
			applogger.Int("skipped", len(rep.Skipped)),
		)
	}
}
