package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Irehund/JobTrack/internal/model"
	"github.com/Irehund/JobTrack/internal/render"
)

var (
	commuteOpts   searchFlags
	commuteTop    int
	commuteSorted bool
)

var commuteCmd = &cobra.Command{
	Use:   "commute",
	Short: "Search, then estimate the drive from home to each listing",
	Long:  "Runs a search, applies filters and resolves driving time from home for the first N listings that have coordinates. Results are cached.",
	RunE:  runCommute,
}

func init() {
	addSearchFlags(commuteCmd, &commuteOpts)
	commuteCmd.Flags().IntVar(&commuteTop, "top", 50, "resolve commute for at most this many listings")
	commuteCmd.Flags().BoolVar(&commuteSorted, "sort", false, "order by commute, shortest first")
	rootCmd.AddCommand(commuteCmd)
}

func runCommute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	home := cfg.Home.Coordinates()
	if home == nil {
		return fmt.Errorf("home.lat and home.lon must be set for commute lookups")
	}

	logger := setupLogger(debug)
	ctx, stop := signalContext()
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	cache, err := buildCommuteCache(cfg, st.commute, newHTTPClient(), logger)
	if err != nil {
		return err
	}

	res, matched, err := searchAndFilter(ctx, cfg, commuteOpts)
	if err != nil {
		return err
	}

	var located []model.JobListing
	for _, j := range matched {
		if j.HasCoordinates() {
			located = append(located, j)
		}
		if commuteTop > 0 && len(located) == commuteTop {
			break
		}
	}

	minutes, err := cache.Resolve(ctx, *home, located)
	if err != nil {
		logger.Warn("some commutes could not be resolved", "error", err)
	}

	if commuteSorted {
		slices.SortStableFunc(located, func(a, b model.JobListing) int {
			return compareCommute(minutes, a.JobID, b.JobID)
		})
	}

	now := time.Now()
	fmt.Print(render.Summary(res, len(located)))
	for _, j := range located {
		fmt.Println(render.Divider(60))
		fmt.Print(render.Listing(j, minutes[j.JobID], true, now))
	}
	return nil
}

// compareCommute orders known commutes shortest first, then unknown ones.
func compareCommute(minutes map[string]*int, a, b string) int {
	ma, mb := minutes[a], minutes[b]
	switch {
	case ma == nil && mb == nil:
		return 0
	case ma == nil:
		return 1
	case mb == nil:
		return -1
	default:
		return *ma - *mb
	}
}
