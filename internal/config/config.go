package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Irehund/JobTrack/internal/filter"
	"github.com/Irehund/JobTrack/internal/model"
)

// EnvPath names the environment variable consulted when --config is not set.
const EnvPath = "JOBTRACK_CONFIG"

// DefaultPath is used when neither --config nor JOBTRACK_CONFIG is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for JobTrack.
type Config struct {
	Home         HomeConfig
	Search       SearchConfig
	Filters      FilterConfig
	Providers    []ProviderConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	Commute      CommuteConfig
	Notification NotificationConfig
	Watch        WatchConfig
}

// HomeConfig is the origin for radius filtering and commute lookups.
type HomeConfig struct {
	Label string   `yaml:"label"`
	Lat   *float64 `yaml:"lat"`
	Lon   *float64 `yaml:"lon"`
}

// Coordinates returns nil unless both lat and lon are set.
func (h HomeConfig) Coordinates() *model.Coordinates {
	if h.Lat == nil || h.Lon == nil {
		return nil
	}
	return &model.Coordinates{Lat: *h.Lat, Lon: *h.Lon}
}

// SearchConfig is the default query sent to every provider.
type SearchConfig struct {
	Keywords    []string
	Location    string
	RadiusMiles int
	MaxResults  int
	Timeout     time.Duration // global deadline for one search
}

// Query converts the search section to the engine's query type.
func (s SearchConfig) Query() model.Query {
	return model.Query{
		Keywords:    s.Keywords,
		Location:    s.Location,
		RadiusMiles: s.RadiusMiles,
		MaxResults:  s.MaxResults,
	}
}

// FilterConfig holds the default in-memory filters.
type FilterConfig struct {
	WorkType    filter.WorkType
	Experience  filter.Experience
	Keywords    []string
	RadiusMiles int // zero disables the radius filter
}

// ProviderConfig describes one job board.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	AppID   string `yaml:"app_id"`
	Email   string `yaml:"email"`
	Country string `yaml:"country"`
}

// RateLimitConfig spaces requests per upstream key. Keys are provider names
// or "rapidapi" for the providers sharing one RapidAPI subscription.
type RateLimitConfig struct {
	PerMinute int            // default for keys without an override; zero is unlimited
	Overrides map[string]int // per-key overrides
}

// PerMinuteFor returns the configured rate for key, falling back to PerMinute.
func (r RateLimitConfig) PerMinuteFor(key string) int {
	if n, ok := r.Overrides[key]; ok {
		return n
	}
	return r.PerMinute
}

// RetryConfig controls the fixed-delay retry policy for provider calls.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// CommuteConfig controls the routing API and the commute cache.
type CommuteConfig struct {
	APIKey     string
	PerMinute  int
	DailyLimit int
	Cache      CacheConfig
}

// Enabled reports whether commute lookups can run.
func (c CommuteConfig) Enabled() bool {
	return c.APIKey != ""
}

// CacheConfig selects where resolved commutes persist.
type CacheConfig struct {
	Backend  string // "sqlite", "redis" or "none"
	Path     string // sqlite database file
	RedisURL string
	TTL      time.Duration // redis entry lifetime; zero keeps entries forever
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// WatchConfig controls scheduled re-runs of the saved search.
type WatchConfig struct {
	Schedule       string        // cron spec or descriptor, e.g. "@every 6h"
	MinDelay       time.Duration // pause between saved searches in one cycle
	MaxAge         time.Duration // ignore listings older than this; zero disables
	SeedOnFirstRun bool
	Retention      time.Duration // forget seen listings after this long
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Home         HomeConfig         `yaml:"home"`
	Search       rawSearchConfig    `yaml:"search"`
	Filters      rawFilterConfig    `yaml:"filters"`
	Providers    []ProviderConfig   `yaml:"providers"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
	Commute      rawCommuteConfig   `yaml:"commute"`
	Notification NotificationConfig `yaml:"notification"`
	Watch        rawWatchConfig     `yaml:"watch"`
}

type rawSearchConfig struct {
	Keywords    []string `yaml:"keywords"`
	Location    string   `yaml:"location"`
	RadiusMiles int      `yaml:"radius_miles"`
	MaxResults  int      `yaml:"max_results"`
	Timeout     string   `yaml:"timeout"`
}

type rawFilterConfig struct {
	WorkType    string   `yaml:"work_type"`
	Experience  string   `yaml:"experience"`
	Keywords    []string `yaml:"keywords"`
	RadiusMiles int      `yaml:"radius_miles"`
}

type rawRateLimitConfig struct {
	PerMinute *int           `yaml:"per_minute"`
	Overrides map[string]int `yaml:"overrides"`
}

type rawRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

type rawCommuteConfig struct {
	APIKey     string         `yaml:"api_key"`
	PerMinute  int            `yaml:"per_minute"`
	DailyLimit int            `yaml:"daily_limit"`
	Cache      rawCacheConfig `yaml:"cache"`
}

type rawCacheConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawWatchConfig struct {
	Schedule       string `yaml:"schedule"`
	MinDelay       string `yaml:"min_delay"`
	MaxAge         string `yaml:"max_age"`
	SeedOnFirstRun *bool  `yaml:"seed_on_first_run"`
	Retention      string `yaml:"retention"`
}

// ResolvePath picks the config file: the flag value, then JOBTRACK_CONFIG,
// then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	searchTimeout, err := durationOr(raw.Search.Timeout, 60*time.Second, "search.timeout")
	if err != nil {
		return nil, err
	}
	retryDelay, err := durationOr(raw.Retry.Delay, 2*time.Second, "retry.delay")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := durationOr(raw.Commute.Cache.TTL, 0, "commute.cache.ttl")
	if err != nil {
		return nil, err
	}
	minDelay, err := durationOr(raw.Watch.MinDelay, 5*time.Second, "watch.min_delay")
	if err != nil {
		return nil, err
	}
	maxAge, err := durationOr(raw.Watch.MaxAge, 0, "watch.max_age")
	if err != nil {
		return nil, err
	}
	retention, err := durationOr(raw.Watch.Retention, 30*24*time.Hour, "watch.retention")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Home: raw.Home,
		Search: SearchConfig{
			Keywords:    raw.Search.Keywords,
			Location:    raw.Search.Location,
			RadiusMiles: raw.Search.RadiusMiles,
			MaxResults:  intOr(raw.Search.MaxResults, 100),
			Timeout:     searchTimeout,
		},
		Filters: FilterConfig{
			WorkType:    filter.ParseWorkType(raw.Filters.WorkType),
			Experience:  filter.ParseExperience(raw.Filters.Experience),
			Keywords:    raw.Filters.Keywords,
			RadiusMiles: raw.Filters.RadiusMiles,
		},
		Providers: raw.Providers,
		RateLimit: RateLimitConfig{
			PerMinute: 30,
			Overrides: raw.RateLimit.Overrides,
		},
		Retry: RetryConfig{
			Attempts: intOr(raw.Retry.Attempts, 3),
			Delay:    retryDelay,
		},
		Commute: CommuteConfig{
			APIKey:     raw.Commute.APIKey,
			PerMinute:  intOr(raw.Commute.PerMinute, 40),
			DailyLimit: intOr(raw.Commute.DailyLimit, 500),
			Cache: CacheConfig{
				Backend:  strings.ToLower(stringOr(raw.Commute.Cache.Backend, "sqlite")),
				Path:     stringOr(raw.Commute.Cache.Path, "jobtrack.db"),
				RedisURL: raw.Commute.Cache.RedisURL,
				TTL:      cacheTTL,
			},
		},
		Notification: NotificationConfig{
			Type:       stringOr(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
		},
		Watch: WatchConfig{
			Schedule:       stringOr(raw.Watch.Schedule, "@every 6h"),
			MinDelay:       minDelay,
			MaxAge:         maxAge,
			SeedOnFirstRun: true,
			Retention:      retention,
		},
	}
	if raw.RateLimit.PerMinute != nil {
		cfg.RateLimit.PerMinute = *raw.RateLimit.PerMinute
	}
	if raw.Watch.SeedOnFirstRun != nil {
		cfg.Watch.SeedOnFirstRun = *raw.Watch.SeedOnFirstRun
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnabledProviders returns the enabled provider entries in file order.
func (c *Config) EnabledProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range c.Providers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// FilterSet builds the engine filter from the filters section and home.
func (c *Config) FilterSet() filter.FilterSet {
	return filter.FilterSet{
		Home:        c.Home.Coordinates(),
		RadiusMiles: c.Filters.RadiusMiles,
		WorkType:    c.Filters.WorkType,
		Experience:  c.Filters.Experience,
		Keywords:    c.Filters.Keywords,
	}
}

func validate(cfg *Config) error {
	if len(cfg.EnabledProviders()) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	names := make(map[string]bool)
	for _, p := range cfg.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers: every entry needs a name")
		}
		if names[p.Name] {
			return fmt.Errorf("providers: %q listed twice", p.Name)
		}
		names[p.Name] = true
	}

	if cfg.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive, got %v", cfg.Search.Timeout)
	}
	if cfg.Search.RadiusMiles < 0 || cfg.Filters.RadiusMiles < 0 {
		return fmt.Errorf("radius_miles must not be negative")
	}
	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative, got %v", cfg.Retry.Delay)
	}

	if (cfg.Home.Lat == nil) != (cfg.Home.Lon == nil) {
		return fmt.Errorf("home.lat and home.lon must be set together")
	}
	if h := cfg.Home.Coordinates(); h != nil {
		if h.Lat < -90 || h.Lat > 90 || h.Lon < -180 || h.Lon > 180 {
			return fmt.Errorf("home coordinates out of range: %v,%v", h.Lat, h.Lon)
		}
	}

	switch cfg.Commute.Cache.Backend {
	case "sqlite", "none":
	case "redis":
		if cfg.Commute.Cache.RedisURL == "" {
			return fmt.Errorf("commute.cache.redis_url is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("commute.cache.backend must be sqlite, redis or none, got %q", cfg.Commute.Cache.Backend)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be log or slack, got %q", cfg.Notification.Type)
	}

	return nil
}

func durationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
