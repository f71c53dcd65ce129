// Package organizer derives canonical library paths from formatted metadata
// and performs the copy or move into the output tree.
package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"shelforg/internal/metadata"
	"shelforg/internal/scanner"
)

// Organizer places audio files into the structured output tree.
type Organizer struct {
	outputRoot string
	maxLength  int
	move       bool
	dryRun     bool
	log        *slog.Logger
}

// New creates an organizer rooted at outputRoot. When move is false, files
// are copied and the source is left untouched. In dry-run mode every
// decision is made and logged but the filesystem is never mutated.
func New(outputRoot string, maxLength int, move, dryRun bool, log *slog.Logger) *Organizer {
	return &Organizer{
		outputRoot: outputRoot,
		maxLength:  maxLength,
		move:       move,
		dryRun:     dryRun,
		log:        log.With("component", "organizer"),
	}
}

// DryRun reports whether the organizer is in dry-run mode.
func (o *Organizer) DryRun() bool { return o.dryRun }

// Organize places src into the library under its canonical folder and name,
// returning the Placement that was (or would be) performed.
func (o *Organizer) Organize(src string, f metadata.Formatted) (Placement, error) {
	p, err := PlanPlacement(o.outputRoot, f, filepath.Ext(src), o.maxLength)
	if err != nil {
		return Placement{}, err
	}

	action := "copy"
	if o.move {
		action = "move"
	}

	if o.dryRun {
		o.log.Info("dry run: would place file",
			"action", action, "from", src, "to", p.File)
		return p, nil
	}

	if err := os.MkdirAll(p.Folder, 0o755); err != nil {
		return Placement{}, fmt.Errorf("creating book folder %s: %w", p.Folder, err)
	}
	if err := place(src, p.File, o.move); err != nil {
		return Placement{}, err
	}
	o.log.Info("placed file", "action", action, "from", src, "to", p.File)
	return p, nil
}

// CreateFolder derives and creates the canonical book folder without placing
// any audio file. Used by the direct-ASIN mode, which organizes metadata for
// books that are not on disk yet.
func (o *Organizer) CreateFolder(f metadata.Formatted) (string, error) {
	p, err := PlanPlacement(o.outputRoot, f, "", o.maxLength)
	if err != nil {
		return "", err
	}
	if o.dryRun {
		o.log.Info("dry run: would create folder", "path", p.Folder)
		return p.Folder, nil
	}
	if err := os.MkdirAll(p.Folder, 0o755); err != nil {
		return "", fmt.Errorf("creating book folder %s: %w", p.Folder, err)
	}
	o.log.Info("created folder", "path", p.Folder)
	return p.Folder, nil
}

// RouteFailed relocates an unprocessable file into the failed-items folder
// under the output root, mirroring the run's copy/move mode. Errors are
// logged, not returned; routing a failure must never fail the batch.
func (o *Organizer) RouteFailed(src string) {
	failedDir := filepath.Join(o.outputRoot, scanner.FailedDirName)
	dst := filepath.Join(failedDir, filepath.Base(src))

	if o.dryRun {
		o.log.Warn("dry run: would route failed file", "from", src, "to", dst)
		return
	}

	o.log.Warn("routing failed file", "from", src, "to", dst)
	if err := os.MkdirAll(failedDir, 0o755); err != nil {
		o.log.Error("could not create failed folder", "path", failedDir, "error", err)
		return
	}
	if err := place(src, dst, o.move); err != nil {
		o.log.Error("could not route failed file", "path", src, "error", err)
	}
}
