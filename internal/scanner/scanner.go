// Package scanner discovers candidate audiobook files under an input tree.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// FailedDirName is the directory where unprocessable files are routed.
// The scanner never descends into it.
const FailedDirName = "__FAILED_TO_PROCESS__"

var audioExtensions = map[string]bool{
	".aax": true,
	".m4b": true,
	".mp3": true,
	".m4a": true,
}

// Candidate is an audio file eligible for processing.
type Candidate struct {
	Path   string // absolute path
	Name   string // base filename including extension
	Size   int64  // bytes
	Parent string // immediate parent directory name
}

// Scanner walks an input directory and filters candidate files.
type Scanner struct {
	minSize   int64 // bytes
	processed map[string]bool
	log       *slog.Logger
}

// New creates a scanner. minSizeMB filters out files below the given size;
// processed holds absolute paths already recorded as organized, which are
// skipped silently.
func New(minSizeMB int64, processed map[string]bool, log *slog.Logger) *Scanner {
	if processed == nil {
		processed = map[string]bool{}
	}
	return &Scanner{
		minSize:   minSizeMB * 1024 * 1024,
		processed: processed,
		log:       log.With("component", "scanner"),
	}
}

// Scan walks root and returns eligible audio files. The failed-files
// directory is pruned wherever it appears. Results come back in walk order;
// callers sort as needed.
func (s *Scanner) Scan(root string) ([]Candidate, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}

	var found []Candidate
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Prunes any directory carrying the marker, not only exact
			// matches, so renamed or suffixed failed folders stay excluded.
			if strings.Contains(d.Name(), FailedDirName) {
				return fs.SkipDir
			}
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		if s.processed[path] {
			s.log.Debug("skipping previously organized file", "path", path)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() < s.minSize {
			s.log.Info("skipping file below minimum size",
				"path", path,
				"size_mb", info.Size()/(1024*1024),
				"min_mb", s.minSize/(1024*1024))
			return nil
		}
		found = append(found, Candidate{
			Path:   path,
			Name:   d.Name(),
			Size:   info.Size(),
			Parent: filepath.Base(filepath.Dir(path)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", absRoot, err)
	}

	s.log.Info("scan complete", "root", absRoot, "candidates", len(found))
	return found, nil
}
