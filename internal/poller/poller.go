// Package poller runs one watch cycle: search, filter, drop listings that
// were already reported, notify, then remember what was sent.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Irehund/JobTrack/internal/dedup"
	"github.com/Irehund/JobTrack/internal/filter"
	"github.com/Irehund/JobTrack/internal/model"
)

// Searcher runs one aggregated search. *search.Orchestrator satisfies it.
type Searcher interface {
	Search(ctx context.Context, q model.Query, providers []model.Provider) model.AggregatedResult
}

// Options tune a SearchPoller.
type Options struct {
	// SeedOnEmpty marks everything seen without notifying when the store is
	// empty, so the first run does not flood the channel.
	SeedOnEmpty bool
	// MaxAge skips listings posted longer ago than this; zero disables it.
	MaxAge time.Duration
	// Retention prunes seen entries older than this each cycle; zero keeps them.
	Retention time.Duration
}

// SearchPoller owns the full watch pipeline for a single saved search.
type SearchPoller struct {
	Name      string
	searcher  Searcher
	providers []model.Provider
	query     model.Query
	filters   filter.FilterSet
	store     model.SeenStore
	notifier  model.ListingNotifier
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewSearchPoller creates a poller wired with all its dependencies.
func NewSearchPoller(
	name string,
	searcher Searcher,
	providers []model.Provider,
	query model.Query,
	filters filter.FilterSet,
	store model.SeenStore,
	notifier model.ListingNotifier,
	opts Options,
	logger *slog.Logger,
) *SearchPoller {
	return &SearchPoller{
		Name:      name,
		searcher:  searcher,
		providers: providers,
		query:     query,
		filters:   filters,
		store:     store,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Poll runs one cycle. It fails only when every provider failed or the
// store or notifier did; partial provider failures are logged.
func (p *SearchPoller) Poll(ctx context.Context) error {
	if p.opts.Retention > 0 {
		if err := p.store.Cleanup(p.opts.Retention); err != nil {
			p.logger.Warn("pruning seen listings failed", "search", p.Name, "error", err)
		}
	}

	seed := false
	if p.opts.SeedOnEmpty {
		empty, err := p.store.IsEmpty()
		if err != nil {
			return fmt.Errorf("polling %s: checking store: %w", p.Name, err)
		}
		seed = empty
	}

	res := p.searcher.Search(ctx, p.query, p.providers)
	for _, perr := range res.Errors {
		p.logger.Warn("provider failed", "search", p.Name, "provider", perr.Provider, "kind", perr.Kind, "error", perr.Err)
	}
	if res.Providers > 0 && res.Failed() == res.Providers {
		return fmt.Errorf("polling %s: all %d providers failed", p.Name, res.Providers)
	}

	matched := filter.Apply(res.Listings, p.filters)

	var fresh []model.JobListing
	var keys []string
	for _, j := range matched {
		if p.opts.MaxAge > 0 && p.now().Sub(j.PostedAt) > p.opts.MaxAge {
			continue
		}
		key := dedup.KeyOf(j).String()
		seen, err := p.store.HasSeen(key)
		if err != nil {
			return fmt.Errorf("polling %s: checking seen status: %w", p.Name, err)
		}
		if !seen {
			fresh = append(fresh, j)
			keys = append(keys, key)
		}
	}

	if len(fresh) > 0 && !seed {
		if err := p.notifier.Notify(fresh); err != nil {
			return fmt.Errorf("polling %s: notifying: %w", p.Name, err)
		}
	}

	for _, key := range keys {
		if err := p.store.MarkSeen(key); err != nil {
			return fmt.Errorf("polling %s: marking seen: %w", p.Name, err)
		}
	}

	p.logger.Info("polled search",
		"search", p.Name,
		"fetched", len(res.Listings),
		"matched", len(matched),
		"new", len(fresh),
		"seeded", seed,
	)
	return nil
}
