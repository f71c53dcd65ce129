package audible

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalog creates a test server that simulates the catalog API.
func mockCatalog(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

// writeJSON is a test helper that writes a JSON response and panics on error.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic("test: failed to encode JSON: " + err.Error())
	}
}

func productHandler(asin, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"product": map[string]any{
				"asin":  asin,
				"title": title,
				"authors": []map[string]string{
					{"name": "Jane Doe"},
				},
				"narrators": []map[string]string{
					{"name": "Nora Voice"},
				},
				"series": []map[string]string{
					{"title": "Great Series", "sequence": "2"},
				},
				"release_date":       "2020-05-17",
				"publisher_summary":  "  A thrilling tale.  ",
				"publisher_name":     "Darkwood Audio",
				"language":           "english",
				"runtime_length_min": 612,
				"product_images": map[string]string{
					"500":  "https://img.example/500.jpg",
					"1000": "https://img.example/1000.jpg",
				},
				"ratings_summary": map[string]any{"average_rating": 4.6},
			},
		})
	}
}

func TestFetchByASIN(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products/B0TEST1234": productHandler("B0TEST1234", "My Book"),
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	p, err := c.FetchByASIN(context.Background(), "B0TEST1234")
	require.NoError(t, err)

	assert.Equal(t, "B0TEST1234", p.ASIN)
	assert.Equal(t, "My Book", p.Title)
	assert.Equal(t, []string{"Jane Doe"}, p.Authors)
	assert.Equal(t, []string{"Nora Voice"}, p.Narrators)
	assert.Equal(t, "Great Series", p.Series)
	assert.Equal(t, "02", p.SeriesPart)
	assert.Equal(t, "2020", p.Year)
	assert.Equal(t, "A thrilling tale.", p.Description)
	assert.Equal(t, "https://img.example/1000.jpg", p.CoverURL, "largest cover size wins")
	assert.Equal(t, 4.6, p.Rating)
	assert.NotEmpty(t, p.Raw)
}

func TestFetchByASIN_SearchFallbackConfirms(t *testing.T) {
	var directCalls atomic.Int32
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products/B0TEST1234": func(w http.ResponseWriter, r *http.Request) {
			// First direct lookup fails, the confirmed retry succeeds.
			if directCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			productHandler("B0TEST1234", "My Book")(w, r)
		},
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "B0TEST1234", r.URL.Query().Get("keywords"))
			writeJSON(w, map[string]any{
				"products": []map[string]string{{"asin": "B0TEST1234", "title": "My Book"}},
			})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	p, err := c.FetchByASIN(context.Background(), "B0TEST1234")
	require.NoError(t, err)
	assert.Equal(t, "My Book", p.Title)
	assert.Equal(t, int32(2), directCalls.Load())
}

func TestFetchByASIN_SearchFallbackMismatch(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"products": []map[string]string{{"asin": "B0DIFFERENT", "title": "Wrong Book"}},
			})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	_, err := c.FetchByASIN(context.Background(), "B0TEST1234")
	assert.ErrorIs(t, err, ErrASINMismatch)
}

func TestFetchByASIN_FallbackEmptySearch(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"products": []any{}})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	_, err := c.FetchByASIN(context.Background(), "B0TEST1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "jane doe my book", r.URL.Query().Get("keywords"))
			assert.Equal(t, "1", r.URL.Query().Get("num_results"))
			writeJSON(w, map[string]any{
				"products": []map[string]string{{"asin": "B0HIT00001", "title": "My Book"}},
			})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	results, err := c.Search(context.Background(), "jane doe my book", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "B0HIT00001", results[0].ASIN)
}

func TestSearchEmptyResultsNotError(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"products": []any{}})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	results, err := c.Search(context.Background(), "no such book", 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAuthErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	_, err := c.Search(context.Background(), "whatever", 1)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsRetried(t *testing.T) {
	var calls atomic.Int32
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, map[string]any{
				"products": []map[string]string{{"asin": "B0HIT00001", "title": "Hit"}},
			})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	results, err := c.Search(context.Background(), "flaky", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAuthTokenHeader(t *testing.T) {
	server := mockCatalog(t, map[string]http.HandlerFunc{
		"/1.0/catalog/products": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			writeJSON(w, map[string]any{"products": []any{}})
		},
	})
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAuthToken("tok123"))
	_, err := c.Search(context.Background(), "q", 1)
	require.NoError(t, err)
}

func TestDownloadCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "cover.jpg")
	c := New()
	require.NoError(t, c.DownloadCover(context.Background(), server.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestDownloadCoverHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "cover.jpg")
	c := New()
	err := c.DownloadCover(context.Background(), server.URL, dest)
	assert.Error(t, err)
	assert.NoFileExists(t, dest)
}

func TestLoadAuthToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"tok123"}`), 0o600))

	token, err := LoadAuthToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)
}

func TestLoadAuthTokenMissingFile(t *testing.T) {
	token, err := LoadAuthToken(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, token)
}
