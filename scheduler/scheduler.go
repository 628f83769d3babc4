// Package scheduler repeats cleaning runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs a job on a cron schedule. A tick that fires while the
// previous run is still going is skipped, so runs never overlap.
type Scheduler struct {
	spec string
	cron *cron.Cron
	log  zerolog.Logger
}

// New validates spec (standard five field cron syntax or a descriptor such
// as "@daily") and registers job on it.
func New(spec string, log zerolog.Logger, job func()) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	l := cronLogger{log: log.With().Str("component", "scheduler").Logger()}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("schedule run: %w", err)
	}
	return &Scheduler{spec: spec, cron: c, log: l.log}, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// a run in progress to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.log.Info().Str("schedule", s.spec).Time("next", s.Next()).Msg("scheduler started")

	<-ctx.Done()

	s.log.Info().Msg("stopping scheduler, waiting for the current run")
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Next returns the time of the next scheduled run, or the zero time when the
// scheduler has not been started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
