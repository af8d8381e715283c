// Package scheduler runs the alert scan on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"subtrack/internal/log"
)

// AlertRunner is satisfied by services.AlertProcessor.
type AlertRunner interface {
	ProcessDueSubscriptions(ctx context.Context, now time.Time) (int, error)
}

// AlertScheduler invokes an AlertRunner on a standard five-field cron spec.
type AlertScheduler struct {
	cron    *cron.Cron
	runner  AlertRunner
	logger  *log.Logger
	spec    string
	timeout time.Duration
	now     func() time.Time
}

func NewAlertScheduler(runner AlertRunner, spec string, loc *time.Location, logger *log.Logger) *AlertScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &AlertScheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		logger:  logger.WithComponent(log.ComponentScheduler),
		spec:    spec,
		timeout: 5 * time.Minute,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

// RunOnce performs a single scan.
func (s *AlertScheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.runner.ProcessDueSubscriptions(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Alert scan failed", log.FieldError, err)
		return n, err
	}
	s.logger.InfoContext(ctx, "Alert scan completed",
		"notified", n,
		log.FieldDuration, time.Since(start).Milliseconds())
	return n, nil
}

// Run schedules the scan and blocks until ctx ends, then waits for a running
// scan to finish.
func (s *AlertScheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { _, _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule alerts %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("Alert scheduler started", "spec", s.spec)

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Alert scheduler stopped")
	return nil
}

// Next reports the next scheduled run after t.
func (s *AlertScheduler) Next(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}
