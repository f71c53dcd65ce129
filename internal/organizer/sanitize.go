// internal/organizer/sanitize.go
package organizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// illegalChars are characters not allowed in filenames on common filesystems,
// plus ASCII control characters.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// multiSpace matches multiple consecutive whitespace characters.
var multiSpace = regexp.MustCompile(`\s+`)

// Sanitize makes a string safe to use as a single path segment. Illegal
// characters are removed, whitespace runs collapse to one space, and the
// result is trimmed and truncated to maxLength runes, preferring to cut at
// the last space within the limit. Sanitize is idempotent.
func Sanitize(name string, maxLength int) string {
	if name == "" {
		return ""
	}

	name = norm.NFC.String(name)
	name = illegalChars.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if maxLength <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= maxLength {
		return name
	}
	cut := string(runes[:maxLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}
