// Package rating computes the 1-10 deal score for a listing given its asking
// price and a resolved market price. The rater is total: it always produces
// a value, falling back to a deterministic banding function whenever the
// completion service fails or answers unusably.
package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
)

// Rater scores deals. A nil completion client makes it purely deterministic.
type Rater struct {
	client service.CompletionService
	logger *slog.Logger
}

// New creates a rater around the given completion client.
func New(client service.CompletionService, logger *slog.Logger) *Rater {
	return &Rater{
		client: client,
		logger: logger,
	}
}

// Rate returns an integer in [1,10]. Either price being absent or
// non-positive yields the neutral default 5. A valid completion-derived
// rating takes precedence over the banding fallback.
func (r *Rater) Rate(ctx context.Context, listingPrice, marketPrice *float64) int {
	if listingPrice == nil || marketPrice == nil || *listingPrice <= 0 || *marketPrice <= 0 {
		return model.NeutralRating
	}

	diffPct := (*listingPrice - *marketPrice) / *marketPrice * 100

	if r.client != nil {
		prompt := buildRatingPrompt(*listingPrice, *marketPrice, diffPct)
		response, err := r.client.Complete(ctx, prompt, 10)
		if err == nil {
			if rating, ok := parseRatingResponse(response); ok {
				return rating
			}
			r.logger.Debug("unusable rating response, using banding fallback", "response", response)
		} else {
			r.logger.Warn("rating service failed, using banding fallback", "error", err)
		}
	}

	return BandRating(diffPct)
}

// BandRating maps the listing-vs-market price difference percentage onto the
// canonical 1-10 scale. The band boundaries are inclusive on their upper
// edge: -5 rates 7, +10 rates 4.
func BandRating(diffPct float64) int {
	switch {
	case diffPct <= -30:
		return 10
	case diffPct <= -20:
		return 9
	case diffPct <= -10:
		return 8
	case diffPct <= -5:
		return 7
	case diffPct <= 0:
		return 6
	case diffPct <= 5:
		return 5
	case diffPct <= 10:
		return 4
	case diffPct <= 20:
		return 3
	case diffPct <= 30:
		return 2
	default:
		return 1
	}
}

// The natural-language scale in the prompt is advisory; the banding table in
// BandRating is canonical when the two disagree.
func buildRatingPrompt(listingPrice, marketPrice, diffPct float64) string {
	return fmt.Sprintf(`Rate this GPU deal from 1-10:

Listing Price: €%.2f
Market Price: €%.2f
Price Difference: %.1f%%

Rating scale:
- 10: Exceptional deal (30%%+ below market)
- 9: Excellent deal (20-30%% below market)
- 8: Very good deal (10-20%% below market)
- 7: Good deal (5-10%% below market)
- 6: Fair deal (0-5%% below market)
- 5: Average market price (0-5%% above market)
- 4: Slightly overpriced (5-10%% above market)
- 3: Overpriced (10-20%% above market)
- 2: Very overpriced (20-30%% above market)
- 1: Extremely overpriced (30%%+ above market)

Return only the number (1-10):`, listingPrice, marketPrice, diffPct)
}
