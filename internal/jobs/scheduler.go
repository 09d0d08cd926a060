// Package jobs runs periodic housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of housekeeping
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on six-field cron expressions
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With("component", "job_scheduler"),
	}
}

// Register schedules job. Runs use ctx, so canceling it aborts in-flight work.
func (s *Scheduler) Register(ctx context.Context, schedule string, job Job) error {
	logger := s.logger.With("job", job.Name())
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(ctx); err != nil {
			logger.Error("Scheduled job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s with %q: %w", job.Name(), schedule, err)
	}
	logger.Info("Scheduled job", "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Job scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("Job scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out with jobs still running")
	}
}
