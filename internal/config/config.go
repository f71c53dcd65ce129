// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Organizer      OrganizerConfig       `toml:"organizer"`
	Formatting     FormattingConfig      `toml:"formatting"`
	Audible        AudibleConfig         `toml:"audible"`
	Cache          CacheConfig           `toml:"cache"`
	Audiobookshelf *AudiobookshelfConfig `toml:"audiobookshelf"`
}

type OrganizerConfig struct {
	InputDir          string `toml:"input_dir"`
	OutputDir         string `toml:"output_dir"`
	MoveFiles         bool   `toml:"move_files"`
	DryRun            bool   `toml:"dry_run"`
	MinFileSizeMB     int    `toml:"min_file_size_mb"`
	MaxFilenameLength int    `toml:"max_filename_length"`
	CreateOPF         *bool  `toml:"create_opf"`
	LogLevel          string `toml:"log_level"`
}

// CreateOPFEnabled reports whether the OPF sidecar should be written.
// Defaults to true when unset.
func (o OrganizerConfig) CreateOPFEnabled() bool {
	return o.CreateOPF == nil || *o.CreateOPF
}

type FormattingConfig struct {
	MultiValueDelimiter      string `toml:"multi_value_delimiter"`
	UseFullReleaseDateAsYear bool   `toml:"use_full_release_date_as_year"`
	SingleAlbumArtist        bool   `toml:"single_album_artist"`
	NarratorInArtistField    *bool  `toml:"narrator_in_artist_field"`
}

// NarratorInArtist reports whether narrators are appended to the artist
// display field. Defaults to true when unset.
func (f FormattingConfig) NarratorInArtist() bool {
	return f.NarratorInArtistField == nil || *f.NarratorInArtistField
}

type AudibleConfig struct {
	APIBase      string `toml:"api_base"`
	WebBase      string `toml:"web_base"`
	AuthFilePath string `toml:"auth_file_path"`
}

type CacheConfig struct {
	Path string `toml:"path"`
}

type AudiobookshelfConfig struct {
	URL       string `toml:"url"`
	Token     string `toml:"token"`
	LibraryID string `toml:"library_id"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Organizer.OutputDir == "" {
		cfg.Organizer.OutputDir = "./organized_library"
	}
	if cfg.Organizer.MinFileSizeMB == 0 {
		cfg.Organizer.MinFileSizeMB = 80
	}
	if cfg.Organizer.MaxFilenameLength == 0 {
		cfg.Organizer.MaxFilenameLength = 200
	}
	if cfg.Organizer.LogLevel == "" {
		cfg.Organizer.LogLevel = "info"
	}
	if cfg.Formatting.MultiValueDelimiter == "" {
		cfg.Formatting.MultiValueDelimiter = " & "
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "./shelforg-cache.db"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
