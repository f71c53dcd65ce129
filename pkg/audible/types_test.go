package audible

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSequence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2", "02"},
		{"3.0", "03"},
		{"Book 4", "04"},
		{"book 10", "10"},
		{"", ""},
		{"one", "one"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSequence(tt.in), "input %q", tt.in)
	}
}

func TestParseProductMinimal(t *testing.T) {
	raw := json.RawMessage(`{"asin":"B0TEST1234","title":"Bare"}`)
	p, err := parseProduct(raw, "https://www.audible.com")
	require.NoError(t, err)

	assert.Equal(t, "Bare", p.Title)
	assert.Empty(t, p.Authors)
	assert.Empty(t, p.Series)
	assert.Empty(t, p.Year)
	assert.Equal(t, "https://www.audible.com/pd/B0TEST1234", p.ProductURL)
}

func TestParseProductGenres(t *testing.T) {
	raw := json.RawMessage(`{
		"asin": "B0TEST1234",
		"title": "T",
		"category_ladders": [
			{"ladder": [{"name": "Fiction"}, {"name": "Science Fiction"}]},
			{"ladder": [{"name": "Fiction"}, {"name": "Science Fiction"}]},
			{"ladder": [{"name": "Fiction"}, {"name": "Adventure"}]}
		]
	}`)
	p, err := parseProduct(raw, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Science Fiction", "Adventure"}, p.Genres)
}

func TestContributorNamesSkipsBlank(t *testing.T) {
	names := contributorNames([]contributor{{Name: " Jane Doe "}, {Name: "  "}, {Name: "John Roe"}})
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, names)
}
