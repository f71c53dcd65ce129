package metadata

import (
	"strings"

	"shelforg/internal/config"
	"shelforg/pkg/audible"
)

// Formatted carries the display fields derived from a product under a
// formatting configuration. It is the sole input to path construction.
type Formatted struct {
	Product *audible.Product

	// Year is either a 4-digit year or the full release date, depending on
	// configuration.
	Year string

	// AlbumArtist is the primary author display field. With
	// single_album_artist it is the first author alone and AlbumArtistsList
	// carries the full joined list; otherwise AlbumArtist is the full joined
	// list and AlbumArtistsList is empty.
	AlbumArtist      string
	AlbumArtistsList string

	// Artist is AlbumArtist optionally extended with the joined narrators.
	Artist string

	// Narrator is the joined narrator list.
	Narrator string
}

// AllAuthors returns the joined author list regardless of the
// single_album_artist setting.
func (f Formatted) AllAuthors() string {
	if f.AlbumArtistsList != "" {
		return f.AlbumArtistsList
	}
	return f.AlbumArtist
}

// Format derives display fields from a product. Pure and deterministic:
// no network or filesystem access.
func Format(p *audible.Product, cfg config.FormattingConfig) Formatted {
	delimiter := cfg.MultiValueDelimiter
	if delimiter == "" {
		delimiter = " & "
	}

	f := Formatted{Product: p}

	if cfg.UseFullReleaseDateAsYear {
		f.Year = p.ReleaseDate
	} else {
		f.Year = p.Year
	}

	if cfg.SingleAlbumArtist && len(p.Authors) > 0 {
		f.AlbumArtist = p.Authors[0]
		f.AlbumArtistsList = strings.Join(p.Authors, delimiter)
	} else {
		f.AlbumArtist = strings.Join(p.Authors, delimiter)
	}

	f.Narrator = strings.Join(p.Narrators, delimiter)

	artistParts := []string{f.AlbumArtist}
	if cfg.NarratorInArtist() && f.Narrator != "" {
		artistParts = append(artistParts, f.Narrator)
	}
	f.Artist = joinNonEmpty(artistParts, " & ")

	return f
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
