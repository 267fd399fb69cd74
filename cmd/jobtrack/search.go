package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Irehund/JobTrack/internal/config"
	"github.com/Irehund/JobTrack/internal/filter"
	"github.com/Irehund/JobTrack/internal/model"
	"github.com/Irehund/JobTrack/internal/notifier"
	"github.com/Irehund/JobTrack/internal/render"
)

// searchFlags override the config's search and filter sections.
type searchFlags struct {
	query      []string
	location   string
	workType   string
	experience string
	radius     int
	keywords   []string
	limit      int
	asJSON     bool
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search every enabled provider once",
	Long:  "Queries all enabled providers in parallel, merges duplicates, applies filters and prints the result newest first.",
	RunE:  runSearch,
}

func init() {
	addSearchFlags(searchCmd, &searchOpts)
	searchCmd.Flags().BoolVar(&searchOpts.asJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringSliceVarP(&f.query, "query", "q", nil, "search terms sent to providers (default: search.keywords)")
	cmd.Flags().StringVarP(&f.location, "location", "l", "", "\"City, ST\" or zip (default: search.location)")
	cmd.Flags().StringVar(&f.workType, "work-type", "", "any, remote, hybrid or onsite")
	cmd.Flags().StringVar(&f.experience, "experience", "", "any, entry, mid or senior")
	cmd.Flags().IntVar(&f.radius, "radius", -1, "miles from home; snaps up to 10, 25, 50, 75 or 100; 0 disables")
	cmd.Flags().StringSliceVarP(&f.keywords, "keyword", "k", nil, "keep listings mentioning any of these (repeatable)")
	cmd.Flags().IntVar(&f.limit, "limit", 25, "maximum listings to print")
}

// apply merges the flags over the config defaults.
func (f searchFlags) apply(cfg *config.Config) (model.Query, filter.FilterSet) {
	q := cfg.Search.Query()
	if len(f.query) > 0 {
		q.Keywords = f.query
	}
	if f.location != "" {
		q.Location = f.location
	}

	fs := cfg.FilterSet()
	if f.workType != "" {
		fs.WorkType = filter.ParseWorkType(f.workType)
	}
	if f.experience != "" {
		fs.Experience = filter.ParseExperience(f.experience)
	}
	if f.radius >= 0 {
		fs.RadiusMiles = f.radius
	}
	if len(f.keywords) > 0 {
		fs.Keywords = f.keywords
	}
	if fs.RadiusMiles > 0 && q.RadiusMiles == 0 {
		q.RadiusMiles = filter.SnapRadius(fs.RadiusMiles)
	}
	return q, fs
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// searchAndFilter runs one aggregated search and applies the filters.
func searchAndFilter(ctx context.Context, cfg *config.Config, f searchFlags) (model.AggregatedResult, []model.JobListing, error) {
	logger := setupLogger(debug)
	httpClient := newHTTPClient()

	providers := buildProviders(cfg, httpClient, logger)
	if len(providers) == 0 {
		return model.AggregatedResult{}, nil, fmt.Errorf("no usable providers; check credentials with `jobtrack providers --check`")
	}

	q, fs := f.apply(cfg)
	if fs.RadiusMiles > 0 && fs.Home == nil {
		logger.Warn("radius filter ignored: home.lat/home.lon not set")
	}

	orch := newOrchestrator(cfg, notifier.NewLogNotifier(logger), logger)
	res := orch.Search(ctx, q, providers)
	return res, filter.Apply(res.Listings, fs), nil
}

type searchOutput struct {
	SearchID  string             `json:"search_id"`
	Providers int                `json:"providers"`
	Errors    []string           `json:"errors,omitempty"`
	Listings  []model.JobListing `json:"listings"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	res, matched, err := searchAndFilter(ctx, cfg, searchOpts)
	if err != nil {
		return err
	}
	shown := matched
	if searchOpts.limit > 0 && len(shown) > searchOpts.limit {
		shown = shown[:searchOpts.limit]
	}

	if searchOpts.asJSON {
		out := searchOutput{SearchID: res.SearchID, Providers: res.Providers, Listings: shown}
		for _, perr := range res.Errors {
			out.Errors = append(out.Errors, perr.Error())
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	now := time.Now()
	fmt.Print(render.Summary(res, len(shown)))
	for _, j := range shown {
		fmt.Println(render.Divider(60))
		fmt.Print(render.Listing(j, nil, false, now))
	}
	if len(res.Errors) > 0 && res.Failed() == res.Providers {
		return fmt.Errorf("all %d providers failed", res.Providers)
	}
	return nil
}
