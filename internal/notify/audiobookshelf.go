// Package notify triggers a library rescan on an Audiobookshelf server after
// a run adds new books.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Audiobookshelf triggers library scans over the Audiobookshelf HTTP API.
type Audiobookshelf struct {
	baseURL    string
	token      string
	libraryID  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewAudiobookshelf creates a notifier for the given server and library.
func NewAudiobookshelf(baseURL, token, libraryID string, log *slog.Logger) *Audiobookshelf {
	return &Audiobookshelf{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		libraryID:  libraryID,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With("component", "notify"),
	}
}

// TriggerRescan asks the server to rescan the configured library. Failures
// are returned but callers treat the rescan as best effort; the organized
// files are already in place.
func (a *Audiobookshelf) TriggerRescan(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/libraries/%s/scan", a.baseURL, a.libraryID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating rescan request: %w", err)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("triggering rescan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rescan request returned status %d", resp.StatusCode)
	}

	a.log.Info("triggered library rescan", "library", a.libraryID)
	return nil
}
