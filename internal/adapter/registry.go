package adapter

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/Irehund/JobTrack/internal/model"
)

// Settings carries the per-provider credentials from config.
type Settings struct {
	APIKey  string
	AppID   string // Adzuna only
	Email   string // USAJobs only
	Country string // Adzuna only
}

// Validator is implemented by adapters that can check their credentials
// without running a real search.
type Validator interface {
	Validate(ctx context.Context) error
}

// Factory builds a provider from its settings.
type Factory func(s Settings, client *http.Client) (model.Provider, error)

// Registry maps provider names to factories. The RapidAPI-backed providers
// share one upstream key.
var Registry = map[string]Factory{
	"usajobs": func(s Settings, client *http.Client) (model.Provider, error) {
		if s.APIKey == "" || s.Email == "" {
			return nil, fmt.Errorf("usajobs: api_key and email are required")
		}
		return NewUSAJobsAdapter(s.APIKey, s.Email, client), nil
	},
	"adzuna": func(s Settings, client *http.Client) (model.Provider, error) {
		if s.AppID == "" || s.APIKey == "" {
			return nil, fmt.Errorf("adzuna: app_id and api_key are required")
		}
		return NewAdzunaAdapter(s.AppID, s.APIKey, s.Country, client), nil
	},
	"indeed":    jsearchFactory("indeed", "Indeed"),
	"linkedin":  jsearchFactory("linkedin", "LinkedIn"),
	"glassdoor": jsearchFactory("glassdoor", "Glassdoor"),
}

// RapidAPIProviders are the providers served through the JSearch aggregator.
var RapidAPIProviders = []string{"indeed", "linkedin", "glassdoor"}

func jsearchFactory(name, publisher string) Factory {
	return func(s Settings, client *http.Client) (model.Provider, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("%s: api_key is required", name)
		}
		return NewJSearchAdapter(name, publisher, s.APIKey, client), nil
	}
}

// New builds the named provider.
func New(name string, s Settings, client *http.Client) (model.Provider, error) {
	f, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (known: %v)", name, Names())
	}
	return f(s, client)
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRapidAPI reports whether the provider shares the RapidAPI quota.
func IsRapidAPI(name string) bool {
	return slices.Contains(RapidAPIProviders, name)
}
