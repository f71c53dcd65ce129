// Package pipeline orchestrates one organizing run: scan, resolve, fetch,
// format, place, record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"shelforg/internal/config"
	"shelforg/internal/ledger"
	"shelforg/internal/metadata"
	"shelforg/internal/organizer"
	"shelforg/internal/resolver"
	"shelforg/internal/scanner"
	"shelforg/internal/tags"
)

// lockFileName guards the output root against concurrent runs.
const lockFileName = ".shelforg.lock"

// Summary is the end-of-run result.
type Summary struct {
	Processed int
	Failed    int
}

// CoverDownloader fetches a cover image to a local path.
type CoverDownloader interface {
	DownloadCover(ctx context.Context, coverURL, destPath string) error
}

// Notifier triggers a downstream library rescan after a run.
type Notifier interface {
	TriggerRescan(ctx context.Context) error
}

// Options wires the pipeline's collaborators and run settings.
type Options struct {
	InputDir   string
	OutputRoot string
	DryRun     bool
	MinSizeMB  int64
	CreateOPF  bool
	ManualMap  map[string]string
	Formatting config.FormattingConfig

	Tags      tags.Reader
	Metadata  *metadata.Service
	Organizer *organizer.Organizer
	Covers    CoverDownloader
	Notifier  Notifier // nil disables rescans
	Rescan    bool

	Log *slog.Logger
}

// Runner executes organizing runs. Processing is sequential, one file at a
// time; the ledger is the only mutable state shared across files.
type Runner struct {
	opts Options
	log  *slog.Logger
}

// New creates a pipeline runner.
func New(opts Options) *Runner {
	return &Runner{
		opts: opts,
		log:  opts.Log.With("component", "pipeline"),
	}
}

// Run scans the input tree and processes every candidate. A failure on one
// file never aborts the batch; the file is routed to the failed folder and
// counted. Returns the run summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	unlock, err := r.acquireLock()
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	led := ledger.Load(r.opts.OutputRoot, r.log)

	scan := scanner.New(r.opts.MinSizeMB, led.Paths(), r.log)
	candidates, err := scan.Scan(r.opts.InputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("scanning input: %w", err)
	}

	// Deterministic processing order.
	sort.Slice(candidates, func(i, j int) bool {
		return strings.ToLower(candidates[i].Name) < strings.ToLower(candidates[j].Name)
	})

	scanRoot, err := filepath.Abs(r.opts.InputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving input dir: %w", err)
	}

	res := resolver.New(r.opts.ManualMap, r.opts.Metadata, r.log)

	var summary Summary
	for i, cand := range candidates {
		r.log.Info("processing file",
			"index", i+1, "total", len(candidates), "name", cand.Name)

		if err := r.safeProcess(ctx, res, led, cand, scanRoot); err != nil {
			r.log.Error("file failed", "name", cand.Name, "error", err)
			r.opts.Organizer.RouteFailed(cand.Path)
			summary.Failed++
			continue
		}
		summary.Processed++
	}

	r.log.Info("processing complete",
		"processed", summary.Processed, "failed", summary.Failed)

	r.maybeRescan(ctx)
	return summary, nil
}

// ProcessASINs fetches metadata for each ASIN and creates the book folders
// with sidecars and covers, without scanning or placing audio files.
func (r *Runner) ProcessASINs(ctx context.Context, asins []string) (Summary, error) {
	var summary Summary
	for _, asin := range asins {
		asin = strings.TrimSpace(asin)
		if asin == "" {
			continue
		}
		r.log.Info("processing ASIN", "asin", asin)
		if err := r.createFromASIN(ctx, asin); err != nil {
			r.log.Error("ASIN failed", "asin", asin, "error", err)
			summary.Failed++
			continue
		}
		summary.Processed++
	}
	r.log.Info("folder creation complete",
		"processed", summary.Processed, "failed", summary.Failed)
	return summary, nil
}

// safeProcess runs processFile and converts a panic into a per-file error so
// a single bad file cannot abort the batch.
func (r *Runner) safeProcess(ctx context.Context, res *resolver.Resolver, led *ledger.Ledger, cand scanner.Candidate, scanRoot string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while processing %s: %v", cand.Name, p)
		}
	}()
	return r.processFile(ctx, res, led, cand, scanRoot)
}

func (r *Runner) processFile(ctx context.Context, res *resolver.Resolver, led *ledger.Ledger, cand scanner.Candidate, scanRoot string) error {
	t := r.opts.Tags.ReadTags(cand.Path)

	resolution, err := res.Resolve(ctx, cand, t, scanRoot)
	if err != nil {
		return err
	}

	product, err := r.opts.Metadata.GetProduct(ctx, resolution.ASIN)
	if err != nil {
		return err
	}

	f := metadata.Format(product, r.opts.Formatting)

	placement, err := r.opts.Organizer.Organize(cand.Path, f)
	if err != nil {
		return err
	}

	if err := r.opts.Organizer.WriteSidecars(placement.Folder, f, r.opts.CreateOPF); err != nil {
		r.log.Warn("could not write sidecar files", "folder", placement.Folder, "error", err)
	}
	r.writeCover(ctx, placement.Folder, cand.Path, f)

	if r.opts.DryRun {
		return nil
	}
	return led.Append(cand.Path, ledger.Entry{
		Title:  product.Title,
		Series: product.Series,
		Year:   f.Year,
		ASIN:   product.ASIN,
	})
}

func (r *Runner) createFromASIN(ctx context.Context, asin string) error {
	product, err := r.opts.Metadata.GetProduct(ctx, asin)
	if err != nil {
		return err
	}

	f := metadata.Format(product, r.opts.Formatting)

	folder, err := r.opts.Organizer.CreateFolder(f)
	if err != nil {
		return err
	}
	if err := r.opts.Organizer.WriteSidecars(folder, f, r.opts.CreateOPF); err != nil {
		r.log.Warn("could not write sidecar files", "folder", folder, "error", err)
	}
	r.writeCover(ctx, folder, "", f)
	return nil
}

// writeCover places cover.jpg into the book folder. A catalog cover URL is
// downloaded; when the catalog has none, the image embedded in the source
// file (if any) is written instead. src is empty in the direct-ASIN mode.
func (r *Runner) writeCover(ctx context.Context, folder, src string, f metadata.Formatted) {
	dest := filepath.Join(folder, "cover.jpg")

	if f.Product.CoverURL != "" && r.opts.Covers != nil {
		if r.opts.DryRun {
			r.log.Info("dry run: would download cover", "to", dest)
			return
		}
		if err := r.opts.Covers.DownloadCover(ctx, f.Product.CoverURL, dest); err != nil {
			r.log.Warn("could not download cover", "url", f.Product.CoverURL, "error", err)
		}
		return
	}

	if src == "" {
		return
	}
	cover, ok := r.opts.Tags.ReadEmbeddedCover(src)
	if !ok {
		return
	}
	if r.opts.DryRun {
		r.log.Info("dry run: would write embedded cover", "to", dest)
		return
	}
	if err := os.WriteFile(dest, cover.Data, 0o644); err != nil {
		r.log.Warn("could not write embedded cover", "path", dest, "error", err)
		return
	}
	r.log.Info("wrote embedded cover", "path", dest, "mime", cover.MIMEType)
}

// acquireLock takes the run lock under the output root. Dry runs skip the
// lock entirely so they never touch the filesystem.
func (r *Runner) acquireLock() (func(), error) {
	if r.opts.DryRun {
		return func() {}, nil
	}

	if err := os.MkdirAll(r.opts.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}
	lock := flock.New(filepath.Join(r.opts.OutputRoot, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another run is already organizing into %s", r.opts.OutputRoot)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (r *Runner) maybeRescan(ctx context.Context) {
	if !r.opts.Rescan || r.opts.Notifier == nil {
		return
	}
	if r.opts.DryRun {
		r.log.Info("dry run: would trigger library rescan")
		return
	}
	if err := r.opts.Notifier.TriggerRescan(ctx); err != nil {
		r.log.Warn("library rescan failed", "error", err)
	}
}
