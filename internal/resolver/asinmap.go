package resolver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadManualMap reads a file name to ASIN override map. JSON files hold a
// single string-to-string object; CSV files hold one "filename,asin" pair
// per line. An empty path yields an empty map; a missing file is a warning,
// not an error, so a stale flag value cannot block a run.
func LoadManualMap(path string, log *slog.Logger) (map[string]string, error) {
	m := map[string]string{}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("ASIN map file not found, continuing without overrides", "path", path)
			return m, nil
		}
		return nil, fmt.Errorf("reading ASIN map: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing ASIN map %s: %w", path, err)
		}
	case ".csv":
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			name, asin, ok := strings.Cut(line, ",")
			if !ok {
				continue
			}
			name, asin = strings.TrimSpace(name), strings.TrimSpace(asin)
			if name != "" && asin != "" {
				m[name] = asin
			}
		}
	default:
		return nil, fmt.Errorf("unsupported ASIN map format %q, want .json or .csv", filepath.Ext(path))
	}

	log.Info("loaded manual ASIN map", "path", path, "entries", len(m))
	return m, nil
}
