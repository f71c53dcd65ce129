package audible

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Product is the parsed catalog metadata for a single ASIN.
type Product struct {
	ASIN        string
	Title       string
	Subtitle    string
	Authors     []string
	Narrators   []string
	Series      string
	SeriesPart  string
	ReleaseDate string
	Year        string
	Description string
	Rating      float64
	CoverURL    string
	Publisher   string
	Language    string
	RuntimeMin  int
	Genres      []string
	ProductURL  string

	// Raw is the unmodified product payload from the API, retained for
	// the per-book metadata.json dump.
	Raw json.RawMessage
}

// SearchResult is one entry from a keyword search. Search responses carry
// only a subset of the product fields.
type SearchResult struct {
	ASIN  string `json:"asin"`
	Title string `json:"title"`
}

type searchResponse struct {
	Products []SearchResult `json:"products"`
}

type productEnvelope struct {
	Product json.RawMessage `json:"product"`
}

type contributor struct {
	Name string `json:"name"`
}

type seriesInfo struct {
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

type productJSON struct {
	ASIN             string            `json:"asin"`
	Title            string            `json:"title"`
	Subtitle         string            `json:"subtitle"`
	Authors          []contributor     `json:"authors"`
	Narrators        []contributor     `json:"narrators"`
	Series           []seriesInfo      `json:"series"`
	ReleaseDate      string            `json:"release_date"`
	PublisherSummary string            `json:"publisher_summary"`
	PublisherName    string            `json:"publisher_name"`
	Language         string            `json:"language"`
	RuntimeLengthMin int               `json:"runtime_length_min"`
	ProductImages    map[string]string `json:"product_images"`
	RatingsSummary   struct {
		AverageRating float64 `json:"average_rating"`
	} `json:"ratings_summary"`
	CategoryLadders []struct {
		Ladder []struct {
			Name string `json:"name"`
		} `json:"ladder"`
	} `json:"category_ladders"`
}

// coverSizes is the preference order for product images, largest first.
var coverSizes = [...]string{"1000", "700", "500"}

// parseProduct converts a raw product payload into a Product.
func parseProduct(raw json.RawMessage, webBase string) (*Product, error) {
	var p productJSON
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}

	prod := &Product{
		ASIN:        p.ASIN,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Authors:     contributorNames(p.Authors),
		Narrators:   contributorNames(p.Narrators),
		ReleaseDate: p.ReleaseDate,
		Description: strings.TrimSpace(p.PublisherSummary),
		Rating:      p.RatingsSummary.AverageRating,
		Publisher:   p.PublisherName,
		Language:    p.Language,
		RuntimeMin:  p.RuntimeLengthMin,
		Raw:         raw,
	}

	if p.ASIN != "" {
		prod.ProductURL = webBase + "/pd/" + p.ASIN
	}

	if len(p.Series) > 0 {
		prod.Series = p.Series[0].Title
		prod.SeriesPart = normalizeSequence(p.Series[0].Sequence)
	}

	if idx := strings.IndexByte(p.ReleaseDate, '-'); idx > 0 {
		prod.Year = p.ReleaseDate[:idx]
	} else {
		prod.Year = p.ReleaseDate
	}

	for _, size := range coverSizes {
		if url, ok := p.ProductImages[size]; ok && url != "" {
			prod.CoverURL = url
			break
		}
	}

	seen := map[string]bool{}
	for _, ladder := range p.CategoryLadders {
		// The last rung is the most specific genre.
		if n := len(ladder.Ladder); n > 0 {
			name := ladder.Ladder[n-1].Name
			if name != "" && !seen[name] {
				seen[name] = true
				prod.Genres = append(prod.Genres, name)
			}
		}
	}

	return prod, nil
}

func contributorNames(cs []contributor) []string {
	var names []string
	for _, c := range cs {
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// normalizeSequence turns a series sequence like "Book 3" or "3.0" into a
// zero-padded position ("03"). Sequences that do not parse as a number are
// kept as-is.
func normalizeSequence(seq string) string {
	s := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(seq), "book", ""))
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fmt.Sprintf("%02d", int(f))
	}
	return s
}
