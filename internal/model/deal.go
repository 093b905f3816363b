package model

// Rating bounds for a scored deal.
const (
	MinRating     = 1
	MaxRating     = 10
	NeutralRating = 5
)

// MarketPriceCandidate is one comparable product found via the price lookup.
type MarketPriceCandidate struct {
	Label string  `json:"title"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// PriceMatch is the candidate the resolver selected for a listing, together
// with the market price extracted from it.
type PriceMatch struct {
	Candidate MarketPriceCandidate
	Price     float64
}

// ScoredDeal is the pipeline's final output unit: a listing enriched with the
// GPU identity used (if any), the matched market candidate (if any), and a
// 1-10 deal rating. Field names are stable; the dashboard consumes the JSON
// export without version negotiation.
type ScoredDeal struct {
	ListingPrice *float64              `json:"listing_price"`
	MarketPrice  *float64              `json:"current_price"`
	Identity     *GPUIdentity          `json:"gpu_identity"`
	MatchedItem  *MarketPriceCandidate `json:"matched_market_item"`
	Source       Source                `json:"source"`
	Title        string                `json:"title"`
	URL          string                `json:"url"`
	ImageURL     string                `json:"image_url"`
	SellerName   string                `json:"seller_name"`
	CreatedAt    string                `json:"created_at"`
	Description  string                `json:"description"`
	AIKeywords   []string              `json:"ai_keywords"`
	Rating       int                   `json:"rating"`
}

// maxExportedDescription bounds the description carried in the output record.
const maxExportedDescription = 200

// NewScoredDeal builds a deal from a listing, truncating the description for
// export. Identity and match start empty; the orchestrator fills them in.
func NewScoredDeal(listing Listing) ScoredDeal {
	desc := listing.Description
	// Truncation counts runes so accented descriptions stay valid UTF-8.
	if runes := []rune(desc); len(runes) > maxExportedDescription {
		desc = string(runes[:maxExportedDescription]) + "..."
	}
	return ScoredDeal{
		Source:       listing.Source,
		Title:        listing.Title,
		URL:          listing.URL,
		ListingPrice: listing.Price,
		ImageURL:     listing.ImageURL,
		SellerName:   listing.SellerName,
		CreatedAt:    listing.CreatedAt,
		Description:  desc,
		AIKeywords:   []string{},
		Rating:       NeutralRating,
	}
}
