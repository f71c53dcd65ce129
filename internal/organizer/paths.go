// internal/organizer/paths.go
package organizer

import (
	"fmt"
	"path/filepath"

	"shelforg/internal/metadata"
)

// Placement is the computed destination for one audio file. Deriving a
// Placement never touches the filesystem, so dry runs and real runs decide
// identical paths.
type Placement struct {
	Folder string // target book folder
	File   string // full target file path inside Folder
}

// PlanPlacement derives the target folder and renamed file for a book.
// Layout is {root}/{author}/[{series}/]{title {authors} {year}}, with every
// segment sanitized independently. ext is the source file's extension
// including the dot.
func PlanPlacement(outputRoot string, f metadata.Formatted, ext string, maxLength int) (Placement, error) {
	title := Sanitize(f.Product.Title, maxLength)
	if title == "" {
		return Placement{}, ErrEmptyTitle
	}

	primaryAuthor := "Unknown Author"
	if len(f.Product.Authors) > 0 {
		primaryAuthor = f.Product.Authors[0]
	}
	authorDir := Sanitize(primaryAuthor, maxLength)

	albumArtist := f.AlbumArtist
	if albumArtist == "" {
		albumArtist = "Unknown Author"
	}

	series := Sanitize(f.Product.Series, maxLength)

	bookDir := Sanitize(fmt.Sprintf("%s {%s} {%s}", title, albumArtist, f.Year), maxLength)

	folder := filepath.Join(outputRoot, authorDir)
	if series != "" {
		folder = filepath.Join(folder, series)
	}
	folder = filepath.Join(folder, bookDir)

	seriesPart := ""
	if series != "" {
		seriesPart = fmt.Sprintf(" {%s}", series)
	}
	base := fmt.Sprintf("%s%s {%s} {%s}", title, seriesPart, albumArtist, f.Year)
	fileName := Sanitize(base, maxLength) + ext

	return Placement{
		Folder: folder,
		File:   filepath.Join(folder, fileName),
	}, nil
}
