package pricing

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/nanopc/dealfinder/internal/model"
)

const defaultComparisonURL = "https://pcpartpicker.fr"

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ComparisonClient implements service.MarketPriceLookup by scraping a
// price-comparison site's product search pages.
type ComparisonClient struct {
	http *resty.Client
}

// ComparisonOptions configures the comparison scraper.
type ComparisonOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewComparisonClient creates a price-comparison scraper client.
func NewComparisonClient(opts ComparisonOptions) (*ComparisonClient, error) {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultComparisonURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", scraperUserAgent)
	client.SetTimeout(timeout)

	return &ComparisonClient{http: client}, nil
}

// Query fetches comparable-product candidates for a GPU identity. At most
// ten candidates are returned, in page order; page order carries no
// relevance guarantee.
func (c *ComparisonClient) Query(ctx context.Context, identity model.GPUIdentity) ([]model.MarketPriceCandidate, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", fmt.Sprintf("%s %s", identity.Brand, identity.Model)).
		Get("/search/")
	if err != nil {
		return nil, fmt.Errorf("comparison search failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("comparison search returned status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse comparison page: %w", err)
	}

	var candidates []model.MarketPriceCandidate
	doc.Find("tr.tr__product").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find(".td__name").Text())
		priceText := strings.TrimSpace(row.Find(".td__price").Text())
		href := row.Find(".td__name a").AttrOr("href", "")

		price := model.ParsePrice(priceText)
		if label == "" || price == nil {
			return true
		}

		url := href
		if url != "" && strings.HasPrefix(url, "/") {
			url = strings.TrimSuffix(c.http.BaseURL, "/") + url
		}

		candidates = append(candidates, model.MarketPriceCandidate{
			Label: label,
			Price: *price,
			URL:   url,
		})
		return len(candidates) < maxCandidates
	})

	return candidates, nil
}
