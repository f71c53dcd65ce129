package resolver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMap(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManualMapJSON(t *testing.T) {
	path := writeMap(t, "map.json", `{"book.m4b": "B0ABCD1234", "other.mp3": "B0WXYZ5678"}`)

	m, err := LoadManualMap(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"book.m4b":  "B0ABCD1234",
		"other.mp3": "B0WXYZ5678",
	}, m)
}

func TestLoadManualMapCSV(t *testing.T) {
	path := writeMap(t, "map.csv", "book.m4b,B0ABCD1234\n\nother.mp3 , B0WXYZ5678\nmalformed line\n")

	m, err := LoadManualMap(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"book.m4b":  "B0ABCD1234",
		"other.mp3": "B0WXYZ5678",
	}, m)
}

func TestLoadManualMapEmptyPath(t *testing.T) {
	m, err := LoadManualMap("", discardLogger())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestLoadManualMapMissingFile(t *testing.T) {
	m, err := LoadManualMap(filepath.Join(t.TempDir(), "nope.json"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestLoadManualMapBadJSON(t *testing.T) {
	path := writeMap(t, "map.json", `["not", "an", "object"]`)
	_, err := LoadManualMap(path, discardLogger())
	assert.Error(t, err)
}

func TestLoadManualMapUnsupportedFormat(t *testing.T) {
	path := writeMap(t, "map.yaml", "book: B0ABCD1234")
	_, err := LoadManualMap(path, discardLogger())
	assert.ErrorContains(t, err, "unsupported")
}
