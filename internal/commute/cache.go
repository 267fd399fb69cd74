// Package commute annotates listings with driving time from home, batching
// and memoizing routing lookups.
package commute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Irehund/JobTrack/internal/model"
)

// DefaultBatchSize is the routing API's destination limit per request.
const DefaultBatchSize = 50

type entry struct {
	minutes *int
}

// call tracks one pair being resolved. done closes once minutes/err are set.
type call struct {
	done    chan struct{}
	minutes *int
	err     error
}

// Cache resolves commute times through a router, remembering every resolved
// pair in memory and in a persistent store. Safe for concurrent use.
type Cache struct {
	router    model.Router
	store     model.CommuteStore
	batchSize int
	logger    *slog.Logger

	mu       sync.RWMutex
	mem      map[model.CommuteKey]entry
	inflight map[model.CommuteKey]*call
}

// NewCache creates a cache. store may be nil for memory-only operation.
func NewCache(router model.Router, store model.CommuteStore, logger *slog.Logger) *Cache {
	return &Cache{
		router:    router,
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    logger,
		mem:       make(map[model.CommuteKey]entry),
		inflight:  make(map[model.CommuteKey]*call),
	}
}

// Resolve returns driving minutes keyed by JobID for every listing with
// coordinates. A nil value means no route exists. Listings without
// coordinates, and pairs whose routing call failed, are absent from the map;
// failures are also reported through the returned error alongside the
// partial result.
func (c *Cache) Resolve(ctx context.Context, home model.Coordinates, jobs []model.JobListing) (map[string]*int, error) {
	out := make(map[string]*int, len(jobs))

	// Unique keys and the jobs waiting on each.
	byKey := make(map[model.CommuteKey][]string)
	var keys []model.CommuteKey
	for _, j := range jobs {
		if !j.HasCoordinates() {
			continue
		}
		k := model.NewCommuteKey(home, *j.Coordinates)
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], j.JobID)
	}
	if len(keys) == 0 {
		return out, nil
	}

	// Memory first.
	var misses []model.CommuteKey
	c.mu.RLock()
	for _, k := range keys {
		if e, ok := c.mem[k]; ok {
			assign(out, byKey[k], e.minutes)
		} else {
			misses = append(misses, k)
		}
	}
	c.mu.RUnlock()

	// Then the persistent store.
	var errs []error
	var uncached []model.CommuteKey
	for _, k := range misses {
		if c.store == nil {
			uncached = append(uncached, k)
			continue
		}
		minutes, found, err := c.store.Get(ctx, k)
		if err != nil {
			c.logger.Warn("commute store read failed", "key", k.String(), "error", err)
			uncached = append(uncached, k)
			continue
		}
		if !found {
			uncached = append(uncached, k)
			continue
		}
		c.remember(k, minutes)
		assign(out, byKey[k], minutes)
	}

	// Claim the pairs nobody else is resolving; wait for the rest.
	var owned []model.CommuteKey
	waiting := make(map[model.CommuteKey]*call)
	c.mu.Lock()
	for _, k := range uncached {
		if e, ok := c.mem[k]; ok {
			assign(out, byKey[k], e.minutes)
			continue
		}
		if cl, ok := c.inflight[k]; ok {
			waiting[k] = cl
			continue
		}
		c.inflight[k] = &call{done: make(chan struct{})}
		owned = append(owned, k)
	}
	c.mu.Unlock()

	for start := 0; start < len(owned); start += c.batchSize {
		end := min(start+c.batchSize, len(owned))
		batch := owned[start:end]
		if err := c.resolveBatch(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}

	for _, k := range owned {
		c.mu.RLock()
		e, ok := c.mem[k]
		c.mu.RUnlock()
		if ok {
			assign(out, byKey[k], e.minutes)
		}
	}

	for k, cl := range waiting {
		select {
		case <-cl.done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("waiting for commute %s: %w", k, ctx.Err()))
			continue
		}
		if cl.err != nil {
			errs = append(errs, fmt.Errorf("commute %s: %w", k, cl.err))
			continue
		}
		assign(out, byKey[k], cl.minutes)
	}

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// Lookup resolves a single pair. The bool is false when the job has no
// coordinates or the lookup failed.
func (c *Cache) Lookup(ctx context.Context, home model.Coordinates, job model.JobListing) (*int, bool, error) {
	res, err := c.Resolve(ctx, home, []model.JobListing{job})
	minutes, ok := res[job.JobID]
	return minutes, ok, err
}

// Clear forgets every cached pair, in memory and in the store. Pairs being
// resolved right now are not affected.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.mem = make(map[model.CommuteKey]entry)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing commute store: %w", err)
	}
	return nil
}

// Len returns the number of pairs held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// resolveBatch routes one batch of owned keys and settles their in-flight
// calls. On failure the keys are released uncached. Every key in a batch
// shares the same rounded home.
func (c *Cache) resolveBatch(ctx context.Context, batch []model.CommuteKey) error {
	dests := make([]model.Coordinates, len(batch))
	for i, k := range batch {
		dests[i] = k.Job()
	}

	minutes, err := c.route(ctx, batch[0].Home(), dests)
	if err == nil && len(minutes) != len(batch) {
		err = fmt.Errorf("router returned %d results for %d destinations", len(minutes), len(batch))
	}
	if err != nil {
		c.logger.Warn("commute batch failed", "destinations", len(batch), "error", err)
		c.settle(batch, nil, err)
		return fmt.Errorf("routing %d destinations: %w", len(batch), err)
	}

	for i, k := range batch {
		if c.store == nil {
			continue
		}
		if perr := c.store.Put(ctx, k, minutes[i]); perr != nil {
			c.logger.Warn("commute store write failed", "key", k.String(), "error", perr)
		}
	}
	c.settle(batch, minutes, nil)
	c.logger.Debug("resolved commute batch", "destinations", len(batch))
	return nil
}

// route calls the router, converting a panic into an error so the batch
// still settles.
func (c *Cache) route(ctx context.Context, home model.Coordinates, dests []model.Coordinates) (minutes []*int, err error) {
	defer func() {
		if r := recover(); r != nil {
			minutes = nil
			err = fmt.Errorf("router panicked: %v", r)
		}
	}()
	return c.router.BatchRoute(ctx, home, dests)
}

// settle publishes results to memory and wakes any waiters.
func (c *Cache) settle(batch []model.CommuteKey, minutes []*int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range batch {
		cl := c.inflight[k]
		delete(c.inflight, k)
		if err == nil {
			c.mem[k] = entry{minutes: minutes[i]}
		}
		if cl != nil {
			cl.err = err
			if err == nil {
				cl.minutes = minutes[i]
			}
			close(cl.done)
		}
	}
}

func (c *Cache) remember(k model.CommuteKey, minutes *int) {
	c.mu.Lock()
	c.mem[k] = entry{minutes: minutes}
	c.mu.Unlock()
}

func assign(out map[string]*int, ids []string, minutes *int) {
	for _, id := range ids {
		out[id] = minutes
	}
}
