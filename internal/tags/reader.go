// Package tags extracts identification hints from embedded audio metadata.
package tags

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Tags holds the identification fields read from a file's embedded
// metadata. Any field may be empty.
type Tags struct {
	ASIN   string
	Title  string
	Author string
}

// Cover is an embedded cover image.
type Cover struct {
	MIMEType string
	Data     []byte
}

// Reader reads embedded metadata from audio files. Implementations never
// fail on unreadable or unsupported files; they return empty results.
type Reader interface {
	ReadTags(path string) Tags
	ReadEmbeddedCover(path string) (Cover, bool)
}

// FileReader reads ID3/MP4 metadata directly from audio files.
type FileReader struct {
	log *slog.Logger
}

// NewFileReader creates a tag reader.
func NewFileReader(log *slog.Logger) *FileReader {
	return &FileReader{log: log.With("component", "tags")}
}

// ReadTags reads the ASIN, title, and author hints from a file. Unreadable
// files yield empty tags and a warning.
func (r *FileReader) ReadTags(path string) Tags {
	m, ok := r.open(path)
	if !ok {
		return Tags{}
	}

	t := Tags{
		Title:  strings.TrimSpace(m.Title()),
		Author: strings.TrimSpace(m.Artist()),
	}
	if t.Author == "" {
		t.Author = strings.TrimSpace(m.AlbumArtist())
	}
	t.ASIN = huntASIN(m.Raw())
	return t
}

// ReadEmbeddedCover extracts the embedded cover art, if any.
func (r *FileReader) ReadEmbeddedCover(path string) (Cover, bool) {
	m, ok := r.open(path)
	if !ok {
		return Cover{}, false
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return Cover{}, false
	}
	mime := pic.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return Cover{MIMEType: mime, Data: pic.Data}, true
}

func (r *FileReader) open(path string) (tag.Metadata, bool) {
	f, err := os.Open(path)
	if err != nil {
		r.log.Warn("could not open file for tag reading", "path", path, "error", err)
		return nil, false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		r.log.Warn("could not read tags", "path", path, "error", err)
		return nil, false
	}
	return m, true
}

// huntASIN searches the raw tag frames for an ASIN. Dedicated frames
// (TXXX:ASIN, the iTunes ASIN atom) win; a comment field carrying an
// "ASIN:" marker is the fallback.
func huntASIN(raw map[string]interface{}) string {
	var commentASIN string
	for key, val := range raw {
		text := rawFrameText(val)
		if text == "" {
			continue
		}
		lower := strings.ToLower(key)
		if strings.Contains(lower, "asin") {
			return strings.TrimSpace(text)
		}
		if commentASIN == "" && isCommentKey(lower) {
			commentASIN = asinFromComment(text)
		}
	}
	return commentASIN
}

func isCommentKey(key string) bool {
	return strings.HasPrefix(key, "comm") || strings.Contains(key, "cmt")
}

// asinFromComment extracts the token following "ASIN:" in a comment.
func asinFromComment(comment string) string {
	_, after, found := strings.Cut(comment, "ASIN:")
	if !found {
		return ""
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// rawFrameText extracts the text content of a raw tag frame.
func rawFrameText(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case *tag.Comm:
		return v.Text
	case []byte:
		return string(v)
	default:
		return ""
	}
}
