package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nanopc/dealfinder/internal/model"
)

const defaultVintedBaseURL = "https://www.vinted.fr"

// VintedSource fetches listings from Vinted's catalog API.
type VintedSource struct {
	http *resty.Client
}

// NewVintedSource creates a Vinted listing source.
func NewVintedSource(opts Options) (*VintedSource, error) {
	client, err := newScraperClient(opts, defaultVintedBaseURL)
	if err != nil {
		return nil, err
	}
	return &VintedSource{http: client}, nil
}

// Name implements service.ListingSource.
func (s *VintedSource) Name() model.Source {
	return model.SourceVinted
}

// vintedItem is the raw Vinted catalog record shape.
type vintedItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Price       struct {
		Amount string `json:"amount"`
	} `json:"price"`
	Photo struct {
		URL string `json:"url"`
	} `json:"photo"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAtTS int64 `json:"created_at_ts"`
}

type vintedCatalogResponse struct {
	Items []vintedItem `json:"items"`
}

// Fetch retrieves up to maxResults listings matching query, newest first as
// far as the catalog supports it.
func (s *VintedSource) Fetch(ctx context.Context, query string, maxResults int) ([]model.Listing, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_text": query,
			"per_page":    strconv.Itoa(maxResults),
			"order":       "newest_first",
		}).
		Get("/api/v2/catalog/items")
	if err != nil {
		return nil, fmt.Errorf("vinted search failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("vinted search returned status %d", res.StatusCode())
	}

	var catalog vintedCatalogResponse
	if err := json.Unmarshal(res.Body(), &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse vinted response: %w", err)
	}

	listings := make([]model.Listing, 0, len(catalog.Items))
	for _, item := range catalog.Items {
		listing := normalizeVinted(item)
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

// normalizeVinted converts a raw Vinted record to the canonical shape.
// Missing optional fields default; an unparsable price stays nil.
func normalizeVinted(item vintedItem) model.Listing {
	var createdAt string
	if item.CreatedAtTS > 0 {
		createdAt = time.Unix(item.CreatedAtTS, 0).UTC().Format(time.RFC3339)
	}

	return model.Listing{
		Source:      model.SourceVinted,
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		Price:       model.ParsePrice(item.Price.Amount),
		ImageURL:    item.Photo.URL,
		SellerName:  item.User.Login,
		CreatedAt:   createdAt,
	}
}
