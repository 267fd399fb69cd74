package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Irehund/JobTrack/internal/notifier"
	"github.com/Irehund/JobTrack/internal/poller"
	"github.com/Irehund/JobTrack/internal/scheduler"
)

var (
	watchOpts searchFlags
	watchOnce bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the search on a schedule and announce new listings",
	Long:  "Runs the configured search immediately and then on watch.schedule. Only listings not reported before are sent to the notifier. Blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	addSearchFlags(watchCmd, &watchOpts)
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single cycle and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if err := scheduler.ValidateSpec(cfg.Watch.Schedule); err != nil {
		return err
	}

	logger := setupLogger(debug)
	ctx, stop := signalContext()
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	httpClient := newHTTPClient()
	providers := buildProviders(cfg, httpClient, logger)
	if len(providers) == 0 {
		return fmt.Errorf("no usable providers; check credentials with `jobtrack providers --check`")
	}

	q, fs := watchOpts.apply(cfg)
	p := poller.NewSearchPoller(
		"default",
		newOrchestrator(cfg, notifier.NewLogNotifier(logger), logger),
		providers,
		q,
		fs,
		st.seen,
		setupNotifier(cfg, httpClient, logger),
		poller.Options{
			SeedOnEmpty: cfg.Watch.SeedOnFirstRun,
			MaxAge:      cfg.Watch.MaxAge,
			Retention:   cfg.Watch.Retention,
		},
		logger,
	)

	if watchOnce {
		return p.Poll(ctx)
	}

	sched := scheduler.NewScheduler(
		[]scheduler.Named{{Name: p.Name, Poller: p}},
		cfg.Watch.Schedule,
		cfg.Watch.MinDelay,
		logger,
	)
	if err := sched.Run(ctx); err != nil {
		return err
	}
	logger.Info("goodbye")
	return nil
}
