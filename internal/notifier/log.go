package notifier

import (
	"log/slog"

	"github.com/Irehund/JobTrack/internal/model"
)

var (
	_ model.Notifier        = (*LogNotifier)(nil)
	_ model.ListingNotifier = (*LogNotifier)(nil)
)

// LogNotifier writes engine signals and listings to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RetryScheduled(ev model.RetryEvent) {
	n.logger.Warn("retrying provider",
		"provider", ev.Provider,
		"attempt", ev.Attempt,
		"max_attempts", ev.MaxAttempts,
		"delay", ev.Delay,
		"error", ev.Err,
	)
}

// SearchCompleted logs at debug level; the orchestrator already logs the
// summary at info.
func (n *LogNotifier) SearchCompleted(res model.AggregatedResult) {
	n.logger.Debug("search completed",
		"search_id", res.SearchID,
		"listings", len(res.Listings),
		"providers", res.Providers,
		"failed", res.Failed(),
		"duration", res.Duration,
	)
}

// Notify logs each listing with company, title, location and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(listings []model.JobListing) error {
	for _, j := range listings {
		args := []any{"company", j.Company, "title", j.Title, "location", j.Location, "url", j.URL, "provider", j.Provider}
		if !j.PostedAt.IsZero() {
			args = append(args, "posted_at", j.PostedAt)
		}
		n.logger.Info("new listing", args...)
	}
	return nil
}
