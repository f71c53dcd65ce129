package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shelforg/pkg/audible"
)

const (
	// Cache TTLs
	productTTL = 7 * 24 * time.Hour // 7 days
	searchTTL  = time.Hour          // 1 hour
)

// Cache key prefixes
const (
	keyPrefixProduct = "audible:product:"
	keyPrefixSearch  = "audible:search:"
)

// ErrNoTitle marks a catalog response whose title field is empty. Such a
// response is unusable for organizing and is treated as a fetch failure.
var ErrNoTitle = errors.New("catalog response has no title")

// Catalog is the remote client surface the service depends on.
type Catalog interface {
	FetchByASIN(ctx context.Context, asin string) (*audible.Product, error)
	Search(ctx context.Context, keywords string, numResults int) ([]audible.SearchResult, error)
}

// Service provides cached, validated access to catalog metadata. A nil cache
// disables caching.
type Service struct {
	client Catalog
	cache  *Cache
	log    *slog.Logger
}

// NewService creates a metadata service.
func NewService(client Catalog, cache *Cache, log *slog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		log:    log.With("component", "metadata"),
	}
}

// GetProduct fetches full product metadata by ASIN (cached). A product with
// an empty title is rejected with ErrNoTitle and never cached.
func (s *Service) GetProduct(ctx context.Context, asin string) (*audible.Product, error) {
	key := keyPrefixProduct + asin

	if data, ok := s.cacheGet(ctx, key); ok {
		var p audible.Product
		if err := json.Unmarshal(data, &p); err == nil {
			s.log.Debug("cache hit for product", "asin", asin, "title", p.Title)
			return &p, nil
		}
		s.log.Warn("failed to unmarshal cached product", "asin", asin)
	}

	s.log.Debug("cache miss for product, calling API", "asin", asin)
	p, err := s.client.FetchByASIN(ctx, asin)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", asin, err)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("product %s: %w", asin, ErrNoTitle)
	}

	s.cacheSet(ctx, key, p, productTTL)
	return p, nil
}

// Search issues a keyword search (cached).
func (s *Service) Search(ctx context.Context, keywords string, numResults int) ([]audible.SearchResult, error) {
	key := fmt.Sprintf("%s%d:%s", keyPrefixSearch, numResults, keywords)

	if data, ok := s.cacheGet(ctx, key); ok {
		var results []audible.SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			s.log.Debug("cache hit for search", "query", keywords, "results", len(results))
			return results, nil
		}
		s.log.Warn("failed to unmarshal cached search results", "query", keywords)
	}

	s.log.Debug("cache miss for search, calling API", "query", keywords)
	results, err := s.client.Search(ctx, keywords, numResults)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.cacheSet(ctx, key, results, searchTTL)
	return results, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, key)
}

func (s *Service) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("failed to marshal value for cache", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.log.Warn("failed to cache value", "key", key, "error", err)
	}
}
