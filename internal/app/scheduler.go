package app

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler runs background jobs on standard five-field cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func NewScheduler(jobTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: jobTimeout,
	}
}

// Add registers job on a cron schedule. An empty schedule disables the job.
func (s *Scheduler) Add(name, schedule string, job func(ctx context.Context) error) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, schedule, err)
	}
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			logging.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		logging.Info().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job finished")
	})
	if err != nil {
		return err
	}
	logging.Info().Str("job", name).Str("schedule", schedule).Msg("job scheduled")
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
