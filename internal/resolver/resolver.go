// Package resolver determines the catalog ASIN for a candidate file using a
// strict priority waterfall over available identification signals.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hbollon/go-edlib"

	"shelforg/internal/scanner"
	"shelforg/internal/tags"
	"shelforg/pkg/audible"
)

//go:generate mockgen -source=resolver.go -destination=mocks/searcher.go -package=mocks

// Stage identifies which waterfall stage produced a resolution.
type Stage string

const (
	StageManualMap      Stage = "manual_map"
	StageEmbeddedTag    Stage = "embedded_tag"
	StageFilenameASIN   Stage = "filename_asin"
	StageTagSearch      Stage = "tag_search"
	StageFilenameSearch Stage = "filename_search"
)

// ErrUnresolved is returned when every waterfall stage fails for a file.
var ErrUnresolved = fmt.Errorf("no stage produced an identifier")

// Searcher issues keyword searches against the catalog.
type Searcher interface {
	Search(ctx context.Context, keywords string, numResults int) ([]audible.SearchResult, error)
}

// Resolution is the outcome of a successful waterfall run.
type Resolution struct {
	ASIN  string
	Stage Stage
}

// Resolver runs the identification waterfall. Stages are tried in order and
// the first hit wins; search failures fall through like absent data.
type Resolver struct {
	manual   map[string]string
	searcher Searcher
	log      *slog.Logger
}

// New creates a resolver. manual maps exact file names to ASINs and may be
// nil.
func New(manual map[string]string, searcher Searcher, log *slog.Logger) *Resolver {
	if manual == nil {
		manual = map[string]string{}
	}
	return &Resolver{
		manual:   manual,
		searcher: searcher,
		log:      log.With("component", "resolver"),
	}
}

// Resolve determines the ASIN for a candidate. scanRoot is the directory the
// scan started from; it controls whether the parent folder name contributes
// to the filename search. Tags come from the caller so the file is only
// parsed once per run.
func (r *Resolver) Resolve(ctx context.Context, cand scanner.Candidate, t tags.Tags, scanRoot string) (Resolution, error) {
	// Stage 1: manual override map, trusted unconditionally.
	if asin, ok := r.manual[cand.Name]; ok {
		r.log.Info("resolved via manual map", "file", cand.Name, "asin", asin)
		return Resolution{ASIN: asin, Stage: StageManualMap}, nil
	}

	// Stage 2: embedded tag ASIN, trusted as-is.
	if t.ASIN != "" {
		r.log.Info("resolved via embedded tag", "file", cand.Name, "asin", t.ASIN)
		return Resolution{ASIN: t.ASIN, Stage: StageEmbeddedTag}, nil
	}

	// Stage 3: ASIN-shaped substring in the filename.
	if m := asinPattern.FindStringSubmatch(cand.Name); m != nil {
		r.log.Info("resolved via filename pattern", "file", cand.Name, "asin", m[1])
		return Resolution{ASIN: m[1], Stage: StageFilenameASIN}, nil
	}

	// Stage 4: keyword search from embedded title and author.
	if t.Title != "" && t.Author != "" {
		query := fmt.Sprintf("%s %s", t.Author, t.Title)
		if asin := r.search(ctx, query, StageTagSearch, cand.Name); asin != "" {
			return Resolution{ASIN: asin, Stage: StageTagSearch}, nil
		}
	}

	// Stage 5: keyword search from the cleaned parent folder and file name.
	combined := cand.Name
	if filepath.Dir(cand.Path) != scanRoot {
		combined = fmt.Sprintf("%s %s", cand.Parent, cand.Name)
	}
	query := CleanSearchQuery(combined)
	if asin := r.search(ctx, query, StageFilenameSearch, cand.Name); asin != "" {
		return Resolution{ASIN: asin, Stage: StageFilenameSearch}, nil
	}

	return Resolution{}, fmt.Errorf("%s: %w", cand.Name, ErrUnresolved)
}

// search runs one keyword search and returns the first result's ASIN, or ""
// when the search fails or comes back empty. A transport error is logged and
// treated the same as no results.
func (r *Resolver) search(ctx context.Context, query string, stage Stage, file string) string {
	r.log.Info("searching catalog", "stage", string(stage), "query", query)
	results, err := r.searcher.Search(ctx, query, 1)
	if err != nil {
		r.log.Warn("catalog search failed", "stage", string(stage), "file", file, "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}
	hit := results[0]
	if hit.Title != "" {
		if sim, err := edlib.StringsSimilarity(query, hit.Title, edlib.Levenshtein); err == nil {
			r.log.Debug("accepted first search result",
				"stage", string(stage), "asin", hit.ASIN, "title", hit.Title,
				"similarity", fmt.Sprintf("%.2f", sim))
		}
	}
	return hit.ASIN
}
