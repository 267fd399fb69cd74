// Package search fans a query out to every enabled provider, waits for all of
// them to settle and merges the results.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Irehund/JobTrack/internal/dedup"
	"github.com/Irehund/JobTrack/internal/model"
	"github.com/Irehund/JobTrack/internal/retry"
)

const (
	DefaultTimeout = 60 * time.Second
	DefaultGrace   = 2 * time.Second
)

// Orchestrator runs one goroutine per provider per search and joins them.
type Orchestrator struct {
	executor *retry.Executor
	timeout  time.Duration
	grace    time.Duration
	notifier model.Notifier
	logger   *slog.Logger
	now      func() time.Time

	inflight singleflight.Group
	mu       sync.Mutex
	flights  map[string]*flight
}

// flight is the shared run behind one search key. Its context is detached
// from every caller and cancelled only once the last waiter has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewOrchestrator creates an orchestrator. timeout bounds the whole search;
// providers still running after timeout plus grace are reported as timed out.
// Non-positive durations use the defaults.
func NewOrchestrator(
	executor *retry.Executor,
	timeout time.Duration,
	grace time.Duration,
	notifier model.Notifier,
	logger *slog.Logger,
) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Orchestrator{
		executor: executor,
		timeout:  timeout,
		grace:    grace,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		flights:  make(map[string]*flight),
	}
}

// Search queries every provider concurrently and returns once all of them
// have settled or the timeout expired. Provider failures are reported in the
// result, never returned. Identical concurrent searches share one run and
// each caller gets its own copy of the result. A caller whose ctx ends
// early gets every provider reported as canceled; the shared run keeps going
// for the callers still waiting on it.
func (o *Orchestrator) Search(ctx context.Context, q model.Query, providers []model.Provider) model.AggregatedResult {
	key := searchKey(q, providers)
	f := o.join(ctx, key)

	ch := o.inflight.DoChan(key, func() (any, error) {
		return o.run(f.ctx, q, providers), nil
	})

	select {
	case r := <-ch:
		o.leave(key, f, false)
		res := r.Val.(model.AggregatedResult)
		if r.Shared {
			res = cloneResult(res)
		}
		return res
	case <-ctx.Done():
		o.leave(key, f, true)
		return o.abandoned(ctx, providers)
	}
}

func (o *Orchestrator) join(ctx context.Context, key string) *flight {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.flights[key]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		o.flights[key] = f
	}
	f.waiters++
	return f
}

// leave drops one waiter. When the last waiter gave up early the run is
// cancelled and forgotten so later callers start a fresh one.
func (o *Orchestrator) leave(key string, f *flight, gaveUp bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if o.flights[key] == f {
		delete(o.flights, key)
	}
	if gaveUp {
		o.inflight.Forget(key)
	}
	f.cancel()
}

// abandoned is the result handed to a caller that stopped waiting.
func (o *Orchestrator) abandoned(ctx context.Context, providers []model.Provider) model.AggregatedResult {
	start := o.now()
	res := model.AggregatedResult{
		SearchID:  uuid.NewString(),
		RawCounts: make(map[string]int),
		Providers: len(providers),
		StartedAt: start,
	}
	for _, p := range providers {
		res.Errors = append(res.Errors, &model.ProviderError{
			Provider: p.Name(),
			Kind:     model.KindCanceled,
			Err:      ctx.Err(),
		})
	}
	o.logger.Info("search abandoned by caller", "search_id", res.SearchID, "error", ctx.Err())
	return res
}

// cloneResult copies everything a caller could mutate.
func cloneResult(res model.AggregatedResult) model.AggregatedResult {
	res.Listings = slices.Clone(res.Listings)
	res.RawCounts = maps.Clone(res.RawCounts)
	if res.Errors != nil {
		errs := make([]*model.ProviderError, len(res.Errors))
		for i, e := range res.Errors {
			cp := *e
			errs[i] = &cp
		}
		res.Errors = errs
	}
	return res
}

// outcome is one provider's slot. Each worker writes only its own slot.
type outcome struct {
	jobs    []model.JobListing
	err     *model.ProviderError
	settled bool
}

func (o *Orchestrator) run(ctx context.Context, q model.Query, providers []model.Provider) model.AggregatedResult {
	start := o.now()
	res := model.AggregatedResult{
		SearchID:  uuid.NewString(),
		RawCounts: make(map[string]int),
		Providers: len(providers),
		StartedAt: start,
	}
	if len(providers) == 0 {
		o.finish(&res)
		return res
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var mu sync.Mutex
	outcomes := make([]outcome, len(providers))

	var g errgroup.Group
	g.SetLimit(len(providers))
	for i, p := range providers {
		g.Go(func() error {
			jobs, err := o.executor.Execute(searchCtx, p.Name(), func(ctx context.Context) ([]model.JobListing, error) {
				return p.Fetch(ctx, q)
			})

			slot := outcome{jobs: jobs, settled: true}
			if err != nil {
				var provErr *model.ProviderError
				if !errors.As(err, &provErr) {
					provErr = &model.ProviderError{Provider: p.Name(), Kind: model.Classify(err), Attempts: 1, Err: err}
				}
				slot.jobs = nil
				slot.err = provErr
			}

			mu.Lock()
			outcomes[i] = slot
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	deadline := time.NewTimer(o.timeout + o.grace)
	defer deadline.Stop()
	select {
	case <-done:
	case <-deadline.C:
		o.logger.Warn("search timed out, abandoning unsettled providers", "search_id", res.SearchID, "timeout", o.timeout)
	}

	mu.Lock()
	snapshot := slices.Clone(outcomes)
	mu.Unlock()

	lists := make([][]model.JobListing, 0, len(providers))
	for i, p := range providers {
		slot := snapshot[i]
		switch {
		case !slot.settled:
			res.Errors = append(res.Errors, &model.ProviderError{
				Provider: p.Name(),
				Kind:     model.KindTimeout,
				Err:      fmt.Errorf("no response within %s", o.timeout),
			})
		case slot.err != nil:
			res.Errors = append(res.Errors, slot.err)
			o.logger.Warn("provider failed", "provider", p.Name(), "kind", slot.err.Kind.String(), "attempts", slot.err.Attempts, "error", slot.err.Err)
		default:
			res.RawCounts[p.Name()] = len(slot.jobs)
			lists = append(lists, stamp(slot.jobs, p.Name(), start))
		}
	}

	res.Listings = dedup.Merge(lists...)
	o.finish(&res)
	return res
}

func (o *Orchestrator) finish(res *model.AggregatedResult) {
	res.Duration = o.now().Sub(res.StartedAt)
	o.logger.Info("search completed",
		"search_id", res.SearchID,
		"providers", res.Providers,
		"failed", res.Failed(),
		"listings", len(res.Listings),
		"duration", res.Duration,
	)
	if o.notifier != nil {
		o.notifier.SearchCompleted(*res)
	}
}

// stamp copies jobs, filling in the provider tag and a fetch-time PostedAt
// where the provider left them empty.
func stamp(jobs []model.JobListing, provider string, fetchedAt time.Time) []model.JobListing {
	out := make([]model.JobListing, len(jobs))
	for i, j := range jobs {
		if j.Provider == "" {
			j.Provider = provider
		}
		if j.PostedAt.IsZero() {
			j.PostedAt = fetchedAt
		}
		out[i] = j
	}
	return out
}

// searchKey identifies a query against an ordered provider set.
func searchKey(q model.Query, providers []model.Provider) string {
	var b strings.Builder
	b.WriteString(strings.Join(q.Keywords, "\x1f"))
	b.WriteByte('|')
	b.WriteString(q.Location)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.RadiusMiles))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.MaxResults))
	for _, p := range providers {
		b.WriteByte('|')
		b.WriteString(p.Name())
	}
	return b.String()
}
