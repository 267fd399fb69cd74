package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Irehund/JobTrack/internal/adapter"
)

var providersCheck bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Long:  "Reads the config and prints every configured provider with its status. With --check, each enabled provider's credentials are tested.",
	RunE:  runProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersCheck, "check", false, "test credentials of enabled providers")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	httpClient := newHTTPClient()

	fmt.Printf("%-12s %-10s %-10s %s\n", "Provider", "Quota", "Status", "Detail")
	fmt.Println(strings.Repeat("─", 60))

	enabled, disabled := 0, 0
	for _, pc := range cfg.Providers {
		status, detail := "enabled", ""
		if !pc.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
			p, err := adapter.New(pc.Name, adapter.Settings{
				APIKey: pc.APIKey, AppID: pc.AppID, Email: pc.Email, Country: pc.Country,
			}, httpClient)
			switch {
			case err != nil:
				status, detail = "invalid", err.Error()
			case providersCheck:
				if v, ok := p.(adapter.Validator); ok {
					checkCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
					if err := v.Validate(checkCtx); err != nil {
						status, detail = "failing", err.Error()
					} else {
						detail = "credentials ok"
					}
					cancel()
				}
			}
		}
		fmt.Printf("%-12s %-10s %-10s %s\n", pc.Name, rateKey(pc.Name), status, detail)
	}

	fmt.Printf("\nTotal: %d providers (%d enabled, %d disabled)\n", len(cfg.Providers), enabled, disabled)
	return nil
}
