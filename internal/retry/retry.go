package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Irehund/JobTrack/internal/model"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Clock abstracts waiting so tests can observe delays without sleeping.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock waits on the wall clock.
var RealClock Clock = realClock{}

// Call is one provider invocation.
type Call func(ctx context.Context) ([]model.JobListing, error)

// Executor retries transient provider failures with a fixed delay between
// attempts. Authentication failures are returned immediately.
type Executor struct {
	attempts int
	delay    time.Duration
	clock    Clock
	notifier model.Notifier
	logger   *slog.Logger
}

// NewExecutor creates an executor making at most attempts calls (1 initial +
// attempts-1 retries) spaced by delay. Non-positive values fall back to the
// defaults of 3 attempts and 2s.
func NewExecutor(attempts int, delay time.Duration, clock Clock, notifier model.Notifier, logger *slog.Logger) *Executor {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clock == nil {
		clock = RealClock
	}
	return &Executor{
		attempts: attempts,
		delay:    delay,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute runs call until it succeeds, fails with a non-transient error, or
// runs out of attempts. A non-nil error is always a *model.ProviderError.
func (e *Executor) Execute(ctx context.Context, provider string, call Call) ([]model.JobListing, error) {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		jobs, err := safeCall(ctx, call)
		if err == nil {
			if attempt > 1 {
				e.logger.Info("provider recovered after retry", "provider", provider, "attempt", attempt)
			}
			return jobs, nil
		}
		lastErr = err

		kind := model.Classify(err)
		if !kind.Transient() {
			if kind == model.KindAuth {
				e.logger.Warn("auth error, skipping retries", "provider", provider, "error", err)
			}
			return nil, &model.ProviderError{Provider: provider, Kind: kind, Attempts: attempt, Err: err}
		}

		if attempt == e.attempts {
			break
		}

		e.logger.Warn("retrying after transient error",
			"provider", provider,
			"attempt", attempt+1,
			"max_attempts", e.attempts,
			"delay", e.delay,
			"error", err,
		)
		if e.notifier != nil {
			e.notifier.RetryScheduled(model.RetryEvent{
				Provider:    provider,
				Attempt:     attempt + 1,
				MaxAttempts: e.attempts,
				Delay:       e.delay,
				Err:         err,
			})
		}

		select {
		case <-ctx.Done():
			return nil, &model.ProviderError{
				Provider: provider,
				Kind:     model.Classify(ctx.Err()),
				Attempts: attempt,
				Err:      fmt.Errorf("retry cancelled: %w (last error: %v)", ctx.Err(), lastErr),
			}
		case <-e.clock.After(e.delay):
		}
	}

	e.logger.Error("all attempts failed", "provider", provider, "attempts", e.attempts, "error", lastErr)
	return nil, &model.ProviderError{
		Provider: provider,
		Kind:     model.Classify(lastErr),
		Attempts: e.attempts,
		Err:      lastErr,
	}
}

// safeCall converts a panic inside a provider into an error.
func safeCall(ctx context.Context, call Call) (jobs []model.JobListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return call(ctx)
}
