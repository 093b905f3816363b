package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/nanopc/dealfinder/internal/model"
)

const defaultLeboncoinBaseURL = "https://api.leboncoin.fr"

// gpuKeywords gates which Leboncoin ads are treated as graphics cards; the
// computer category mixes in towers, RAM and peripherals.
var gpuKeywords = []string{"carte graphique", "graphics", "gpu", "rtx", "gtx", "radeon", "geforce"}

// LeboncoinSource fetches listings from the Leboncoin search API.
type LeboncoinSource struct {
	http *resty.Client
}

// NewLeboncoinSource creates a Leboncoin listing source.
func NewLeboncoinSource(opts Options) (*LeboncoinSource, error) {
	client, err := newScraperClient(opts, defaultLeboncoinBaseURL)
	if err != nil {
		return nil, err
	}
	return &LeboncoinSource{http: client}, nil
}

// Name implements service.ListingSource.
func (s *LeboncoinSource) Name() model.Source {
	return model.SourceLeboncoin
}

// lbcAd is the raw Leboncoin ad shape. Price arrives as an array of amounts.
type lbcAd struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	Price     []float64 `json:"price"`
	IndexDate string    `json:"index_date"`
	Images    struct {
		URLs []string `json:"urls"`
	} `json:"images"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
}

type lbcSearchResponse struct {
	Ads []lbcAd `json:"ads"`
}

// Fetch retrieves up to maxResults GPU-related listings matching query,
// newest first.
func (s *LeboncoinSource) Fetch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	body := map[string]any{
		"filters": map[string]any{
			"category": map[string]string{"id": "15"}, // computers
			"keywords": map[string]any{
				"text":        query,
				"search_type": "subject",
			},
			"enums": map[string][]string{"ad_type": {"offer"}},
		},
		"limit":      maxResults,
		"sort_by":    "time",
		"sort_order": "desc",
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post("/finder/search")
	if err != nil {
		return nil, fmt.Errorf("leboncoin search failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("leboncoin search returned status %d", res.StatusCode())
	}

	var search lbcSearchResponse
	if err := json.Unmarshal(res.Body(), &search); err != nil {
		return nil, fmt.Errorf("failed to parse leboncoin response: %w", err)
	}

	listings := make([]model.Listing, 0, len(search.Ads))
	for _, ad := range search.Ads {
		if !isGPURelated(ad) {
			continue
		}
		listing := normalizeLeboncoin(ad)
		if listing.Title == "" {
			continue
		}
		listings = append(listings, listing)
		if len(listings) >= maxResults {
			break
		}
	}
	return listings, nil
}

func isGPURelated(ad lbcAd) bool {
	text := strings.ToLower(ad.Subject + " " + ad.Body)
	for _, kw := range gpuKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// normalizeLeboncoin converts a raw Leboncoin ad to the canonical shape.
func normalizeLeboncoin(ad lbcAd) model.Listing {
	var price *float64
	if len(ad.Price) > 0 && ad.Price[0] >= 0 {
		price = model.Float64Ptr(ad.Price[0])
	}

	var imageURL string
	if len(ad.Images.URLs) > 0 {
		imageURL = ad.Images.URLs[0]
	}

	return model.Listing{
		Source:      model.SourceLeboncoin,
		Title:       ad.Subject,
		Description: ad.Body,
		URL:         ad.URL,
		Price:       price,
		ImageURL:    imageURL,
		SellerName:  ad.Owner.Name,
		CreatedAt:   ad.IndexDate,
	}
}
