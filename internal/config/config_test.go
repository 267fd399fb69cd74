package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Irehund/JobTrack/internal/filter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
providers:
  - name: usajobs
    enabled: true
    api_key: k
    email: me@example.com
`

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
home:
  label: Dallas
  lat: 32.7767
  lon: -96.797
search:
  keywords: [security analyst]
  location: "Dallas, TX"
  radius_miles: 25
  timeout: 30s
filters:
  work_type: remote
  experience: Senior
  keywords: [soc]
  radius_miles: 40
providers:
  - name: usajobs
    enabled: true
    api_key: abc
    email: me@example.com
  - name: linkedin
    enabled: false
    api_key: rapid
rate_limit:
  per_minute: 20
  overrides:
    rapidapi: 10
retry:
  attempts: 4
  delay: 500ms
commute:
  api_key: ors
  cache:
    backend: redis
    redis_url: redis://localhost:6379/0
    ttl: 24h
notification:
  type: slack
  webhook_url: https://hooks.slack.com/services/T/B/X
watch:
  schedule: "0 8 * * 1-5"
  max_age: 72h
  seed_on_first_run: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Home.Coordinates(); h == nil || h.Lat != 32.7767 || h.Lon != -96.797 {
		t.Errorf("Home = %+v", h)
	}
	if cfg.Search.Timeout != 30*time.Second {
		t.Errorf("Search.Timeout = %v, want 30s", cfg.Search.Timeout)
	}
	q := cfg.Search.Query()
	if q.Location != "Dallas, TX" || q.RadiusMiles != 25 || q.MaxResults != 100 || len(q.Keywords) != 1 {
		t.Errorf("Query = %+v", q)
	}
	if cfg.Filters.WorkType != filter.WorkTypeRemote || cfg.Filters.Experience != filter.ExperienceSenior {
		t.Errorf("Filters = %+v", cfg.Filters)
	}
	fs := cfg.FilterSet()
	if fs.Home == nil || fs.RadiusMiles != 40 || len(fs.Keywords) != 1 {
		t.Errorf("FilterSet = %+v", fs)
	}
	if got := cfg.EnabledProviders(); len(got) != 1 || got[0].Name != "usajobs" || got[0].Email != "me@example.com" {
		t.Errorf("EnabledProviders = %+v", got)
	}
	if cfg.RateLimit.PerMinuteFor("rapidapi") != 10 || cfg.RateLimit.PerMinuteFor("usajobs") != 20 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.Attempts != 4 || cfg.Retry.Delay != 500*time.Millisecond {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if !cfg.Commute.Enabled() || cfg.Commute.PerMinute != 40 || cfg.Commute.DailyLimit != 500 {
		t.Errorf("Commute = %+v", cfg.Commute)
	}
	if cfg.Commute.Cache.Backend != "redis" || cfg.Commute.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache = %+v", cfg.Commute.Cache)
	}
	if cfg.Watch.Schedule != "0 8 * * 1-5" || cfg.Watch.MaxAge != 72*time.Hour || cfg.Watch.SeedOnFirstRun {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Timeout != 60*time.Second {
		t.Errorf("Search.Timeout = %v, want 60s", cfg.Search.Timeout)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Delay != 2*time.Second {
		t.Errorf("Retry = %+v, want 3 attempts at 2s", cfg.Retry)
	}
	if cfg.Filters.WorkType != filter.WorkTypeAny || cfg.Filters.Experience != filter.ExperienceAny {
		t.Errorf("Filters = %+v, want any/any", cfg.Filters)
	}
	if cfg.Home.Coordinates() != nil {
		t.Error("Home should be unset")
	}
	if cfg.Commute.Enabled() {
		t.Error("Commute should be disabled without an api key")
	}
	if cfg.Commute.Cache.Backend != "sqlite" || cfg.Commute.Cache.Path != "jobtrack.db" {
		t.Errorf("Cache = %+v", cfg.Commute.Cache)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q, want log", cfg.Notification.Type)
	}
	if cfg.RateLimit.PerMinuteFor("rapidapi") != 30 {
		t.Errorf("RateLimit default = %d, want 30", cfg.RateLimit.PerMinuteFor("rapidapi"))
	}
	if cfg.Watch.Schedule != "@every 6h" || !cfg.Watch.SeedOnFirstRun || cfg.Watch.Retention != 720*time.Hour {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JOBTRACK_TEST_KEY", "from-env")
	cfg, err := Load(writeConfig(t, `
providers:
  - name: adzuna
    enabled: true
    app_id: id
    api_key: ${JOBTRACK_TEST_KEY}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers[0].APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.Providers[0].APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "providers: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no enabled providers", `
providers:
  - name: usajobs
    enabled: false
`, "at least one provider"},
		{"duplicate provider", minimal + `
  - name: usajobs
    enabled: false
`, "listed twice"},
		{"bad timeout", minimal + `
search:
  timeout: soon
`, "search.timeout"},
		{"negative attempts", minimal + `
retry:
  attempts: -1
`, "retry.attempts"},
		{"half a home", minimal + `
home:
  lat: 32.7
`, "set together"},
		{"home out of range", minimal + `
home:
  lat: 95
  lon: 10
`, "out of range"},
		{"unknown cache backend", minimal + `
commute:
  cache:
    backend: memcached
`, "commute.cache.backend"},
		{"redis without url", minimal + `
commute:
  cache:
    backend: redis
`, "redis_url"},
		{"slack without webhook", minimal + `
notification:
  type: slack
`, "webhook_url is required"},
		{"slack wrong host", minimal + `
notification:
  type: slack
  webhook_url: https://example.com/hook
`, "hooks.slack.com"},
		{"unknown notifier", minimal + `
notification:
  type: email
`, "notification.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath() = %q, want %q", got, DefaultPath)
	}

	t.Setenv(EnvPath, "/etc/jobtrack.yaml")
	if got := ResolvePath(""); got != "/etc/jobtrack.yaml" {
		t.Errorf("ResolvePath() = %q, want env value", got)
	}
	if got := ResolvePath("mine.yaml"); got != "mine.yaml" {
		t.Errorf("ResolvePath(flag) = %q, want flag value", got)
	}
}
