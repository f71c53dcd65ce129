// Package ledger persists the record of source files already organized, so
// later runs skip them.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the ledger file written into the output root.
const FileName = "processed_metadata.json"

// Entry is the compact record kept for one organized source file.
type Entry struct {
	Title  string `json:"title"`
	Series string `json:"series"`
	Year   string `json:"year"`
	ASIN   string `json:"asin"`
}

// Ledger maps absolute source paths to their entries. Entries are only ever
// added; a path present here is excluded from scanning forever.
type Ledger struct {
	path    string
	entries map[string]Entry
	log     *slog.Logger
}

// Load reads the ledger from outputRoot. A missing or corrupt file yields an
// empty ledger; it never fails the run.
func Load(outputRoot string, log *slog.Logger) *Ledger {
	l := &Ledger{
		path:    filepath.Join(outputRoot, FileName),
		entries: map[string]Entry{},
		log:     log.With("component", "ledger"),
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("could not read ledger, starting fresh", "path", l.path, "error", err)
		}
		return l
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		l.log.Warn("ledger is corrupt, starting fresh", "path", l.path, "error", err)
		l.entries = map[string]Entry{}
		return l
	}
	l.log.Info("loaded ledger", "path", l.path, "entries", len(l.entries))
	return l
}

// Contains reports whether path is already recorded.
func (l *Ledger) Contains(path string) bool {
	_, ok := l.entries[path]
	return ok
}

// Paths returns the set of recorded source paths.
func (l *Ledger) Paths() map[string]bool {
	paths := make(map[string]bool, len(l.entries))
	for p := range l.entries {
		paths[p] = true
	}
	return paths
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Append records path and rewrites the ledger file. The persisted file is
// kept read-only between writes to guard against accidental edits; the
// restriction is lifted before writing and reapplied after. The write itself
// goes through a temp file and rename so the ledger is never left partially
// written.
func (l *Ledger) Append(path string, e Entry) (err error) {
	l.entries[path] = e

	lifted := false
	if _, statErr := os.Stat(l.path); statErr == nil {
		if chErr := os.Chmod(l.path, 0o644); chErr != nil {
			return fmt.Errorf("making ledger writable: %w", chErr)
		}
		lifted = true
	}
	// A failed write must not leave the existing ledger file writable.
	defer func() {
		if err != nil && lifted {
			if chErr := os.Chmod(l.path, 0o444); chErr != nil {
				l.log.Error("could not restore ledger permissions", "path", l.path, "error", chErr)
			}
		}
	}()

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating ledger temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ledger: %w", err)
	}

	if err := os.Chmod(l.path, 0o444); err != nil {
		l.log.Error("could not make ledger read-only", "path", l.path, "error", err)
	}
	l.log.Debug("appended ledger entry", "path", path, "asin", e.ASIN)
	return nil
}
