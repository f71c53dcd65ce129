package resolver

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// An underscore counts as a word character, so plain \b would miss
	// ASINs embedded in names like MyBook_B0ABCD1234.m4b.
	asinPattern = regexp.MustCompile(`(?i)(?:\b|_)(B0[0-9A-Z]{8})(?:\b|_)`)

	// keepWords matches "book 3", "Part IV", "bk-2" style tokens that carry
	// series signal and must survive cleaning.
	keepWords     = regexp.MustCompile(`(?i)\b(book|part|bk|pt|act)\b[ \-]*([0-9]+|[IVXLCDM]+)\b`)
	delimiterRuns = regexp.MustCompile(`[_\-.]+`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// CleanSearchQuery turns a raw filename (optionally prefixed with its parent
// folder name) into a keyword query. Delimiter runs become spaces, series
// tokens like "book 2" are pulled out before cleaning and reattached at the
// end, and whitespace is collapsed.
func CleanSearchQuery(raw string) string {
	stem := strings.TrimSuffix(raw, filepath.Ext(raw))

	var preserved []string
	for _, m := range keepWords.FindAllStringSubmatch(stem, -1) {
		preserved = append(preserved, m[1]+" "+m[2])
	}

	cleaned := delimiterRuns.ReplaceAllString(stem, " ")
	cleaned = keepWords.ReplaceAllString(cleaned, "")

	query := strings.TrimSpace(cleaned + " " + strings.Join(preserved, " "))
	return spaceRuns.ReplaceAllString(query, " ")
}
