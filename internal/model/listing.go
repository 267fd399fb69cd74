package model

import (
	"context"
	"time"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unified representation of a job posting from any provider.
type JobListing struct {
	JobID       string    `json:"job_id"`   // unique per provider only
	Provider    string    `json:"provider"` // provider name, e.g. "usajobs"
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"` // free text, e.g. "Dallas, Texas"
	State       string    `json:"state"`    // two-letter code when known
	Description string    `json:"description"`
	URL         string    `json:"url"` // apply link
	PostedAt    time.Time `json:"posted_at"`

	SalaryMin      *float64     `json:"salary_min,omitempty"`
	SalaryMax      *float64     `json:"salary_max,omitempty"`
	SalaryInterval string       `json:"salary_interval,omitempty"` // "annual", "hourly" or ""
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Remote         *bool        `json:"remote,omitempty"` // nil when the provider does not say
	Hybrid         *bool        `json:"hybrid,omitempty"`
	ClosingDate    *time.Time   `json:"closing_date,omitempty"`

	EmploymentType  string `json:"employment_type,omitempty"`  // "full_time", "contract", ...
	ExperienceLevel string `json:"experience_level,omitempty"` // provider hint: "entry", "mid", "senior" or ""
	Grade           string `json:"grade,omitempty"`            // pay grade or classification, e.g. "GS-09"
}

// Completeness weights. A description alone outranks both salary fields.
const (
	weightDescription = 5
	weightSalaryMin   = 2
	weightSalaryMax   = 2
	weightCoordinates = 1
	weightRemoteFlag  = 1
	weightClosingDate = 1
)

// CompletenessScore is a weighted count of the optional fields that are
// populated. Higher means more complete.
func (j JobListing) CompletenessScore() int {
	score := 0
	if j.Description != "" {
		score += weightDescription
	}
	if j.SalaryMin != nil {
		score += weightSalaryMin
	}
	if j.SalaryMax != nil {
		score += weightSalaryMax
	}
	if j.Coordinates != nil {
		score += weightCoordinates
	}
	if j.Remote != nil {
		score += weightRemoteFlag
	}
	if j.ClosingDate != nil {
		score += weightClosingDate
	}
	return score
}

// HasCoordinates reports whether the listing can be placed on a map.
func (j JobListing) HasCoordinates() bool {
	return j.Coordinates != nil
}

// Query is the immutable search input handed to every provider.
type Query struct {
	Keywords    []string
	Location    string // "City, ST" or a zip code
	RadiusMiles int
	MaxResults  int
}

// Provider fetches listings from one job board.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]JobListing, error)
}

// Router returns driving minutes from origin to each destination, in order.
// A nil entry means no route exists. At most 50 destinations per call.
type Router interface {
	BatchRoute(ctx context.Context, origin Coordinates, destinations []Coordinates) ([]*int, error)
}

// CommuteStore persists resolved commute times beyond the process lifetime.
type CommuteStore interface {
	Get(ctx context.Context, key CommuteKey) (minutes *int, found bool, err error)
	Put(ctx context.Context, key CommuteKey, minutes *int) error
	Clear(ctx context.Context) error
}

// Notifier receives transient engine signals. Implementations must not block.
type Notifier interface {
	RetryScheduled(ev RetryEvent)
	SearchCompleted(res AggregatedResult)
}

// SeenStore remembers which listings have already been reported.
type SeenStore interface {
	HasSeen(key string) (bool, error)
	MarkSeen(key string) error
	Cleanup(olderThan time.Duration) error
	IsEmpty() (bool, error)
}

// ListingNotifier delivers listings to a human, e.g. a log or a Slack channel.
type ListingNotifier interface {
	Notify(listings []JobListing) error
}

// RetryEvent is emitted each time a provider call is about to be retried.
type RetryEvent struct {
	Provider    string
	Attempt     int // the attempt about to run, starting at 2
	MaxAttempts int
	Delay       time.Duration
	Err         error // failure that triggered the retry
}

// AggregatedResult is the outcome of one multi-provider search.
type AggregatedResult struct {
	SearchID  string
	Listings  []JobListing     // deduplicated, newest first
	Errors    []*ProviderError // one per failed provider, in provider order
	RawCounts map[string]int   // listings returned per successful provider
	Providers int              // number of providers queried
	StartedAt time.Time
	Duration  time.Duration
}

// Failed returns how many providers failed.
func (r AggregatedResult) Failed() int {
	return len(r.Errors)
}
