package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Organizer.LogLevel] {
		errs = append(errs, fmt.Sprintf("organizer.log_level: must be one of debug, info, warn, error; got %q", c.Organizer.LogLevel))
	}
	if c.Organizer.MinFileSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("organizer.min_file_size_mb: must not be negative, got %d", c.Organizer.MinFileSizeMB))
	}
	if c.Organizer.MaxFilenameLength < 1 {
		errs = append(errs, fmt.Sprintf("organizer.max_filename_length: must be positive, got %d", c.Organizer.MaxFilenameLength))
	}

	if c.Audiobookshelf != nil {
		if c.Audiobookshelf.URL == "" {
			errs = append(errs, "audiobookshelf.url: required when audiobookshelf is configured")
		}
		if c.Audiobookshelf.LibraryID == "" {
			errs = append(errs, "audiobookshelf.library_id: required when audiobookshelf is configured")
		}
	}

	return errs
}
