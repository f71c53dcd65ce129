package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <asin>[,<asin>...]",
	Short: "Create library folders directly from ASINs, without scanning files",
	Long: `Create library folders directly from ASINs, without scanning files.

For each ASIN the catalog metadata is fetched and the canonical book folder
is created with its sidecar files and cover image. No audio files are
scanned, placed, or recorded in the ledger.

Examples:
  shelforg fetch B0ABCD1234
  shelforg fetch B0ABCD1234,B0WXYZ5678 -o /library
  shelforg fetch B0ABCD1234 --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringP("output", "o", "", "Output directory for the organized library (overrides config)")
	fetchCmd.Flags().Bool("dry-run", false, "Simulate every action without touching the filesystem")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Organizer.OutputDir = output
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Organizer.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}

	var asins []string
	for _, arg := range args {
		for _, asin := range strings.Split(arg, ",") {
			if asin = strings.TrimSpace(asin); asin != "" {
				asins = append(asins, asin)
			}
		}
	}
	if len(asins) == 0 {
		return fmt.Errorf("no valid ASINs given")
	}

	runner, cleanup, err := buildRunner(cfg, nil, false, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := runner.ProcessASINs(cmd.Context(), asins)
	if err != nil {
		return err
	}
	summaryLine(summary.Processed, summary.Failed)
	return nil
}
