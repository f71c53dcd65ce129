package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shelforg/internal/config"
	"shelforg/internal/metadata"
	"shelforg/internal/notify"
	"shelforg/internal/organizer"
	"shelforg/internal/pipeline"
	"shelforg/internal/resolver"
	"shelforg/internal/tags"
	"shelforg/pkg/audible"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Scan an input directory and organize audiobooks into the library",
	Long: `Scan an input directory and organize audiobooks into the library.

Each file is matched to an Audible ASIN using, in priority order: a manual
ASIN map, embedded tags, an ASIN in the filename, a search built from the
embedded title and author, and finally a search built from the cleaned
folder and file name. Matched files are renamed and placed under the output
directory; unmatched files land in a failed-items folder for inspection.

Examples:
  shelforg organize -i /data/incoming
  shelforg organize -i /data/incoming -o /library --move
  shelforg organize -i /data/incoming --dry-run
  shelforg organize -i /data/incoming -a overrides.json --rescan`,
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)
	organizeCmd.Flags().StringP("input", "i", "", "Input directory to scan (overrides config)")
	organizeCmd.Flags().StringP("output", "o", "", "Output directory for the organized library (overrides config)")
	organizeCmd.Flags().StringP("asins", "a", "", "Path to a .json or .csv file mapping filenames to ASINs")
	organizeCmd.Flags().BoolP("move", "m", false, "Move files instead of copying (overrides config)")
	organizeCmd.Flags().Bool("dry-run", false, "Simulate every action without touching the filesystem")
	organizeCmd.Flags().Bool("rescan", false, "Trigger an Audiobookshelf library rescan after processing")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)

	if input, _ := cmd.Flags().GetString("input"); input != "" {
		cfg.Organizer.InputDir = input
	}
	if cfg.Organizer.InputDir == "" {
		return fmt.Errorf("no input directory: set organizer.input_dir or pass --input")
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Organizer.OutputDir = output
	}
	if move, _ := cmd.Flags().GetBool("move"); move {
		cfg.Organizer.MoveFiles = true
	}
	// The flag overrides the config in both directions, but only when set.
	if cmd.Flags().Changed("dry-run") {
		cfg.Organizer.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	rescan, _ := cmd.Flags().GetBool("rescan")

	mapPath, _ := cmd.Flags().GetString("asins")
	manualMap, err := resolver.LoadManualMap(mapPath, log)
	if err != nil {
		return err
	}

	runner, cleanup, err := buildRunner(cfg, manualMap, rescan, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	summaryLine(summary.Processed, summary.Failed)
	return nil
}

// buildRunner assembles the pipeline from configuration. The returned
// cleanup closes the metadata cache.
func buildRunner(cfg *config.Config, manualMap map[string]string, rescan bool, log *slog.Logger) (*pipeline.Runner, func(), error) {
	token, err := audible.LoadAuthToken(cfg.Audible.AuthFilePath)
	if err != nil {
		return nil, nil, err
	}

	clientOpts := []audible.Option{
		audible.WithLogger(log),
		audible.WithAuthToken(token),
	}
	if cfg.Audible.APIBase != "" {
		clientOpts = append(clientOpts, audible.WithBaseURL(cfg.Audible.APIBase))
	}
	if cfg.Audible.WebBase != "" {
		clientOpts = append(clientOpts, audible.WithWebBase(cfg.Audible.WebBase))
	}
	client := audible.New(clientOpts...)

	cache, err := metadata.OpenCache(cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = cache.Close() }

	var notifier pipeline.Notifier
	if abs := cfg.Audiobookshelf; abs != nil {
		notifier = notify.NewAudiobookshelf(abs.URL, abs.Token, abs.LibraryID, log)
	}

	runner := pipeline.New(pipeline.Options{
		InputDir:   cfg.Organizer.InputDir,
		OutputRoot: cfg.Organizer.OutputDir,
		DryRun:     cfg.Organizer.DryRun,
		MinSizeMB:  int64(cfg.Organizer.MinFileSizeMB),
		CreateOPF:  cfg.Organizer.CreateOPFEnabled(),
		ManualMap:  manualMap,
		Formatting: cfg.Formatting,
		Tags:       tags.NewFileReader(log),
		Metadata:   metadata.NewService(client, cache, log),
		Organizer: organizer.New(cfg.Organizer.OutputDir, cfg.Organizer.MaxFilenameLength,
			cfg.Organizer.MoveFiles, cfg.Organizer.DryRun, log),
		Covers:   client,
		Notifier: notifier,
		Rescan:   rescan,
		Log:      log,
	})
	return runner, cleanup, nil
}
