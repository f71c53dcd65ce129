// Package audible is a client for the public Audible catalog API.
package audible

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBaseURL = "https://api.audible.com"
	defaultWebBase = "https://www.audible.com"

	metadataTimeout = 10 * time.Second
	downloadTimeout = 15 * time.Second

	// maxAttempts bounds the transport-level retry for server errors.
	maxAttempts = 3

	// productResponseGroups selects the fields needed to organize a book.
	productResponseGroups = "category_ladders,contributors,media,product_attrs,product_desc,product_details,rating,series"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.0.0 Safari/537.36"
)

// Sentinel errors for catalog API responses.
var (
	ErrNotFound   = errors.New("product not found")
	ErrAuthFailed = errors.New("authentication failed")

	// ErrASINMismatch indicates the verification search resolved to a
	// different identifier than the one requested. The mismatched product
	// is never substituted.
	ErrASINMismatch = errors.New("search returned a different asin")
)

// Client is an Audible catalog API client. Authentication is optional; the
// public search and lookup endpoints work without it.
type Client struct {
	baseURL    string
	webBase    string
	authToken  string
	httpClient *http.Client
	downloader *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithWebBase sets a custom storefront base URL used for product links.
func WithWebBase(url string) Option {
	return func(c *Client) {
		c.webBase = url
	}
}

// WithHTTPClient sets a custom HTTP client for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthToken sets a bearer token for authenticated calls.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "audible")
	}
}

// New creates a new catalog client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		webBase:    defaultWebBase,
		httpClient: newRetryingClient(metadataTimeout),
		downloader: &http.Client{Timeout: downloadTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRetryingClient builds an HTTP client that retries server-side errors
// (500/502/503/504) with backoff, up to maxAttempts total attempts. Client
// errors are never retried.
func newRetryingClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = maxAttempts - 1
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 8 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		switch resp.StatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
	return rc.StandardClient()
}

// LoadAuthToken reads a bearer token from an auth JSON file of the shape
// {"access_token": "..."}. A missing file is not an error; public endpoints
// do not require authentication.
func LoadAuthToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read auth file: %w", err)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", fmt.Errorf("parse auth file: %w", err)
	}
	return auth.AccessToken, nil
}

// FetchByASIN fetches full product metadata for an ASIN.
//
// The direct product lookup is fast but occasionally unreliable, so a failed
// lookup falls back to a keyword search using the ASIN itself. If the top
// search result confirms the ASIN, the direct lookup is retried once on the
// confirmed identifier. A top result with a different ASIN fails the fetch.
func (c *Client) FetchByASIN(ctx context.Context, asin string) (*Product, error) {
	prod, err := c.fetchProduct(ctx, asin)
	if err == nil {
		return prod, nil
	}

	if c.log != nil {
		c.log.Warn("direct asin lookup failed, falling back to keyword search", "asin", asin, "error", err)
	}

	results, searchErr := c.Search(ctx, asin, 1)
	if searchErr != nil || len(results) == 0 {
		return nil, fmt.Errorf("asin %s: direct lookup and search fallback both failed: %w", asin, err)
	}

	if results[0].ASIN != asin {
		return nil, fmt.Errorf("asin %s: got %s: %w", asin, results[0].ASIN, ErrASINMismatch)
	}

	return c.fetchProduct(ctx, asin)
}

// fetchProduct performs a single direct product lookup.
func (c *Client) fetchProduct(ctx context.Context, asin string) (*Product, error) {
	start := time.Now()

	endpoint := fmt.Sprintf("%s/1.0/catalog/products/%s?response_groups=%s&image_sizes=500,700,1000",
		c.baseURL, url.PathEscape(asin), productResponseGroups)

	var envelope productEnvelope
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Product) == 0 {
		return nil, ErrNotFound
	}

	prod, err := parseProduct(envelope.Product, c.webBase)
	if err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug("fetched product", "asin", asin, "title", prod.Title, "duration_ms", time.Since(start).Milliseconds())
	}
	return prod, nil
}

// Search performs a keyword search ordered by relevance.
// An empty result list is returned as (nil, nil); it is not an error.
func (c *Client) Search(ctx context.Context, keywords string, numResults int) ([]SearchResult, error) {
	start := time.Now()

	endpoint := fmt.Sprintf("%s/1.0/catalog/products?response_groups=product_attrs&products_sort_by=Relevance&num_results=%d&keywords=%s",
		c.baseURL, numResults, url.QueryEscape(keywords))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug("search completed", "keywords", keywords, "results", len(resp.Products), "duration_ms", time.Since(start).Milliseconds())
	}
	return resp.Products, nil
}

// DownloadCover streams a cover image to dest. The destination directory
// must already exist.
func (c *Client) DownloadCover(ctx context.Context, coverURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return fmt.Errorf("create cover request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.downloader.Do(req)
	if err != nil {
		return fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download cover: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".cover-*")
	if err != nil {
		return fmt.Errorf("create cover file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cover: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cover: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("place cover: %w", err)
	}

	if c.log != nil {
		c.log.Info("saved cover image", "path", dest)
	}
	return nil
}

// getJSON performs a GET request and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("catalog API error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
