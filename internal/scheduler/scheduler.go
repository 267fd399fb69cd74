// Package scheduler re-runs saved searches on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Poller runs one watch cycle. *poller.SearchPoller satisfies it.
type Poller interface {
	Poll(ctx context.Context) error
}

// Named pairs a poller with the name used in logs.
type Named struct {
	Name   string
	Poller Poller
}

// Scheduler owns the watch loop: one immediate cycle, then one per cron tick.
// A tick that fires while the previous cycle is still running is skipped.
type Scheduler struct {
	pollers  []Named
	spec     string // cron spec, e.g. "@every 6h" or "0 8 * * 1-5"
	minDelay time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs all pollers on spec, pausing
// minDelay between consecutive pollers.
func NewScheduler(pollers []Named, spec string, minDelay time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers:  pollers,
		spec:     spec,
		minDelay: minDelay,
		logger:   logger,
	}
}

// ValidateSpec reports whether spec parses as a standard cron expression or
// descriptor.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", spec, err)
	}
	return nil
}

// Run blocks until ctx is cancelled and returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", s.spec, err)
	}

	clog := cronLogger{s.logger}
	job := cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).
		Then(cron.FuncJob(func() { s.pollAll(ctx) }))

	c := cron.New(cron.WithLogger(clog))
	c.Schedule(schedule, job)

	s.logger.Info("starting scheduler", "schedule", s.spec, "searches", len(s.pollers))
	c.Start()

	// First cycle shares the skip guard with the cron ticks.
	first := make(chan struct{})
	go func() {
		defer close(first)
		job.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	<-first
	return nil
}

// pollAll runs each poller sequentially with a pause between them.
func (s *Scheduler) pollAll(ctx context.Context) {
	for i, p := range s.pollers {
		if ctx.Err() != nil {
			return
		}

		if err := p.Poller.Poll(ctx); err != nil {
			s.logger.Error("poll failed", "search", p.Name, "error", err)
		}

		if i < len(s.pollers)-1 && s.minDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.minDelay):
			}
		}
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
