package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[organizer]
input_dir = "/data/incoming"
output_dir = "/library"
move_files = true
min_file_size_mb = 50
log_level = "debug"

[formatting]
multi_value_delimiter = ", "
single_album_artist = true

[audible]
api_base = "https://api.audible.example"

[cache]
path = "/var/cache/shelforg.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/incoming", cfg.Organizer.InputDir)
	assert.Equal(t, "/library", cfg.Organizer.OutputDir)
	assert.True(t, cfg.Organizer.MoveFiles)
	assert.Equal(t, 50, cfg.Organizer.MinFileSizeMB)
	assert.Equal(t, "debug", cfg.Organizer.LogLevel)
	assert.Equal(t, ", ", cfg.Formatting.MultiValueDelimiter)
	assert.True(t, cfg.Formatting.SingleAlbumArtist)
	assert.Equal(t, "https://api.audible.example", cfg.Audible.APIBase)
	assert.Equal(t, "/var/cache/shelforg.db", cfg.Cache.Path)
	assert.Nil(t, cfg.Audiobookshelf)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[organizer]
input_dir = "/data/incoming"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./organized_library", cfg.Organizer.OutputDir)
	assert.Equal(t, 80, cfg.Organizer.MinFileSizeMB)
	assert.Equal(t, 200, cfg.Organizer.MaxFilenameLength)
	assert.Equal(t, "info", cfg.Organizer.LogLevel)
	assert.Equal(t, " & ", cfg.Formatting.MultiValueDelimiter)
	assert.Equal(t, "./shelforg-cache.db", cfg.Cache.Path)
	assert.True(t, cfg.Organizer.CreateOPFEnabled())
	assert.True(t, cfg.Formatting.NarratorInArtist())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("SHELFORG_TEST_TOKEN", "secret123")

	path := writeConfig(t, `
[organizer]
input_dir = "/data"

[audiobookshelf]
url = "http://abs:13378"
token = "${SHELFORG_TEST_TOKEN}"
library_id = "lib-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Audiobookshelf)
	assert.Equal(t, "secret123", cfg.Audiobookshelf.Token)
}

func TestEnvSubstitutionUnsetLeftAlone(t *testing.T) {
	path := writeConfig(t, `
[organizer]
input_dir = "${SHELFORG_DEFINITELY_UNSET_VAR}"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${SHELFORG_DEFINITELY_UNSET_VAR}", cfg.Organizer.InputDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Organizer.LogLevel = "loud" },
			problem: "log_level",
		},
		{
			name:    "negative min size",
			mutate:  func(c *Config) { c.Organizer.MinFileSizeMB = -1 },
			problem: "min_file_size_mb",
		},
		{
			name:    "zero max filename length",
			mutate:  func(c *Config) { c.Organizer.MaxFilenameLength = 0 },
			problem: "max_filename_length",
		},
		{
			name:    "audiobookshelf without url",
			mutate:  func(c *Config) { c.Audiobookshelf = &AudiobookshelfConfig{LibraryID: "lib"} },
			problem: "audiobookshelf.url",
		},
		{
			name:    "audiobookshelf without library",
			mutate:  func(c *Config) { c.Audiobookshelf = &AudiobookshelfConfig{URL: "http://abs"} },
			problem: "audiobookshelf.library_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			errs := cfg.Validate()
			if tt.problem == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.problem) {
					found = true
				}
			}
			assert.True(t, found, "expected a problem mentioning %q in %v", tt.problem, errs)
		})
	}
}

func TestWriteDefaultIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
}

func TestDiscoverEnvOverride(t *testing.T) {
	path := writeConfig(t, "[organizer]\n")
	t.Setenv("SHELFORG_CONFIG", path)

	got, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestDiscoverEnvOverrideMissing(t *testing.T) {
	t.Setenv("SHELFORG_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	_, err := Discover()
	assert.Error(t, err)
}

func TestConfigError(t *testing.T) {
	e := &ConfigError{
		Path:   "/etc/shelforg/config.toml",
		Errors: []string{"organizer.log_level: bad"},
	}
	assert.Contains(t, e.Error(), "validation failed")
	assert.Contains(t, e.Error(), "organizer.log_level: bad")

	assert.Empty(t, (&ConfigError{}).Error())
}
