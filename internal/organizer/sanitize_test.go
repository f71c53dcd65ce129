package organizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "My Book", "My Book"},
		{"illegal characters removed", `My: Book <vol/2>?`, "My Book vol2"},
		{"backslash and pipe", `a\b|c`, "abc"},
		{"whitespace collapsed", "a   b\t c", "a b c"},
		{"trimmed", "  padded  ", "padded"},
		{"control chars removed", "a\x01b\nc", "abc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in, 200))
		})
	}
}

func TestSanitizeTruncation(t *testing.T) {
	// Cuts at the last space inside the limit.
	got := Sanitize("alpha beta gamma", 12)
	assert.Equal(t, "alpha beta", got)

	// Hard cut when no space exists.
	got = Sanitize(strings.Repeat("x", 50), 10)
	assert.Equal(t, strings.Repeat("x", 10), got)

	// Zero max disables truncation.
	long := strings.Repeat("y", 300)
	assert.Equal(t, long, Sanitize(long, 0))
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"My Book",
		`a<b>c:d"e/f\g|h?i*j`,
		"  lots   of \t whitespace  ",
		strings.Repeat("word ", 100),
		"Füür Bücher", // non-ASCII survives
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in, 50)
		twice := Sanitize(once, 50)
		assert.Equal(t, once, twice, "input %q", in)
		assert.LessOrEqual(t, len([]rune(once)), 50)
		assert.NotRegexp(t, `[<>:"/\\|?*]`, once)
	}
}
