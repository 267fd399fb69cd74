package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Commute cache subcommands",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every cached commute",
	Long:  "Clears the persistent commute cache. Run this after moving home.",
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many commutes are cached",
	RunE:  runCacheStats,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
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

	if err := st.commute.Clear(ctx); err != nil {
		return fmt.Errorf("clear commute cache: %w", err)
	}
	logger.Info("commute cache cleared", "backend", cfg.Commute.Cache.Backend)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
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

	counter, ok := st.commute.(interface {
		CommuteCount(ctx context.Context) (int, error)
	})
	if !ok {
		fmt.Printf("backend %s does not report counts\n", cfg.Commute.Cache.Backend)
		return nil
	}
	n, err := counter.CommuteCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d commutes cached (%s)\n", n, cfg.Commute.Cache.Backend)
	return nil
}
