package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Irehund/JobTrack/internal/adapter"
	"github.com/Irehund/JobTrack/internal/commute"
	"github.com/Irehund/JobTrack/internal/config"
	"github.com/Irehund/JobTrack/internal/model"
	"github.com/Irehund/JobTrack/internal/notifier"
	"github.com/Irehund/JobTrack/internal/ratelimit"
	"github.com/Irehund/JobTrack/internal/retry"
	"github.com/Irehund/JobTrack/internal/routing"
	"github.com/Irehund/JobTrack/internal/search"
	"github.com/Irehund/JobTrack/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "jobtrack",
	Short:        "Search every job board at once",
	Long:         "JobTrack queries several job boards in parallel, merges duplicate postings, filters them and estimates your commute.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBTRACK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig reads .env (if present) so API keys can stay out of the YAML,
// then resolves the config path and parses it.
// Priority: explicit path arg > JOBTRACK_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.ListingNotifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// rateKey groups providers that share an upstream quota.
func rateKey(name string) string {
	if adapter.IsRapidAPI(name) {
		return "rapidapi"
	}
	return name
}

// buildProviders creates every enabled provider, wrapped with its rate
// limiter. Providers that cannot be built are logged and skipped.
func buildProviders(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.Provider {
	limiters := make(map[string]*ratelimit.Limiter)

	var providers []model.Provider
	for _, pc := range cfg.EnabledProviders() {
		p, err := adapter.New(pc.Name, adapter.Settings{
			APIKey:  pc.APIKey,
			AppID:   pc.AppID,
			Email:   pc.Email,
			Country: pc.Country,
		}, httpClient)
		if err != nil {
			logger.Warn("skipping provider", "provider", pc.Name, "error", err)
			continue
		}

		key := rateKey(pc.Name)
		limiter, ok := limiters[key]
		if !ok {
			limiter = ratelimit.PerMinute(cfg.RateLimit.PerMinuteFor(key))
			limiters[key] = limiter
		}
		providers = append(providers, ratelimit.NewRateLimitedProvider(p, limiter, key))
		logger.Debug("registered provider", "provider", pc.Name, "rate_key", key)
	}
	return providers
}

func newOrchestrator(cfg *config.Config, n model.Notifier, logger *slog.Logger) *search.Orchestrator {
	executor := retry.NewExecutor(cfg.Retry.Attempts, cfg.Retry.Delay, retry.RealClock, n, logger)
	return search.NewOrchestrator(executor, cfg.Search.Timeout, search.DefaultGrace, n, logger)
}

// stores bundles the persistence backends chosen by commute.cache.backend.
type stores struct {
	commute model.CommuteStore
	seen    model.SeenStore
	closers []func() error
}

func (s *stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openStores opens the commute cache backend. Seen listings always live in
// SQLite unless the backend is "none".
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	cc := cfg.Commute.Cache
	if cc.Backend == "none" {
		nop := store.NewNopStore()
		return &stores{commute: nop, seen: nop}, nil
	}

	sqlStore, err := store.NewSQLiteStore(cc.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &stores{commute: sqlStore, seen: sqlStore, closers: []func() error{sqlStore.Close}}

	if cc.Backend == "redis" {
		rdb, err := store.NewRedisClient(ctx, cc.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		rs := store.NewRedisStore(rdb, cc.TTL)
		s.commute = rs
		s.closers = append(s.closers, rs.Close)
		logger.Debug("commute cache in redis", "ttl", cc.TTL)
	}
	return s, nil
}

// buildCommuteCache wires the routing API behind its rate limits.
func buildCommuteCache(cfg *config.Config, commuteStore model.CommuteStore, httpClient *http.Client, logger *slog.Logger) (*commute.Cache, error) {
	if !cfg.Commute.Enabled() {
		return nil, fmt.Errorf("commute.api_key is not set")
	}
	router := ratelimit.NewRateLimitedRouter(
		routing.NewORSRouter(cfg.Commute.APIKey, httpClient),
		ratelimit.PerMinute(cfg.Commute.PerMinute),
		ratelimit.NewDailyQuota(cfg.Commute.DailyLimit),
	)
	return commute.NewCache(router, commuteStore, logger), nil
}
