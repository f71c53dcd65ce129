package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shelforg/internal/config"
	"shelforg/pkg/audible"
)

func boolPtr(b bool) *bool { return &b }

func TestFormat(t *testing.T) {
	product := &audible.Product{
		Title:       "My Book",
		Authors:     []string{"Jane Doe", "John Roe"},
		Narrators:   []string{"Nora Voice"},
		ReleaseDate: "2020-05-17",
		Year:        "2020",
	}

	tests := []struct {
		name string
		cfg  config.FormattingConfig
		want Formatted
	}{
		{
			name: "defaults",
			cfg:  config.FormattingConfig{},
			want: Formatted{
				Year:        "2020",
				AlbumArtist: "Jane Doe & John Roe",
				Artist:      "Jane Doe & John Roe & Nora Voice",
				Narrator:    "Nora Voice",
			},
		},
		{
			name: "single album artist keeps full list separately",
			cfg:  config.FormattingConfig{SingleAlbumArtist: true},
			want: Formatted{
				Year:             "2020",
				AlbumArtist:      "Jane Doe",
				AlbumArtistsList: "Jane Doe & John Roe",
				Artist:           "Jane Doe & Nora Voice",
				Narrator:         "Nora Voice",
			},
		},
		{
			name: "full release date as year",
			cfg:  config.FormattingConfig{UseFullReleaseDateAsYear: true},
			want: Formatted{
				Year:        "2020-05-17",
				AlbumArtist: "Jane Doe & John Roe",
				Artist:      "Jane Doe & John Roe & Nora Voice",
				Narrator:    "Nora Voice",
			},
		},
		{
			name: "narrators excluded from artist",
			cfg:  config.FormattingConfig{NarratorInArtistField: boolPtr(false)},
			want: Formatted{
				Year:        "2020",
				AlbumArtist: "Jane Doe & John Roe",
				Artist:      "Jane Doe & John Roe",
				Narrator:    "Nora Voice",
			},
		},
		{
			name: "custom delimiter",
			cfg:  config.FormattingConfig{MultiValueDelimiter: ", "},
			want: Formatted{
				Year:        "2020",
				AlbumArtist: "Jane Doe, John Roe",
				Artist:      "Jane Doe, John Roe & Nora Voice",
				Narrator:    "Nora Voice",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(product, tt.cfg)
			tt.want.Product = product
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatNoNarrators(t *testing.T) {
	product := &audible.Product{
		Title:   "Solo",
		Authors: []string{"Jane Doe"},
		Year:    "1999",
	}
	got := Format(product, config.FormattingConfig{})
	assert.Equal(t, "Jane Doe", got.Artist)
	assert.Equal(t, "", got.Narrator)
}

func TestFormatDeterministic(t *testing.T) {
	product := &audible.Product{Title: "T", Authors: []string{"A", "B"}, Year: "2001"}
	cfg := config.FormattingConfig{SingleAlbumArtist: true}
	assert.Equal(t, Format(product, cfg), Format(product, cfg))
}

func TestAllAuthors(t *testing.T) {
	f := Formatted{AlbumArtist: "Jane Doe", AlbumArtistsList: "Jane Doe & John Roe"}
	assert.Equal(t, "Jane Doe & John Roe", f.AllAuthors())

	f = Formatted{AlbumArtist: "Jane Doe & John Roe"}
	assert.Equal(t, "Jane Doe & John Roe", f.AllAuthors())
}
