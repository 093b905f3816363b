// Package pricing resolves a GPU identity to a market price by querying a
// price-comparison source and selecting the best-matching candidate.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
)

// maxCandidates bounds how many lookup results the resolver considers.
const maxCandidates = 10

// Resolver matches listings against market-price candidates. A nil
// completion client makes it always pick the first candidate.
type Resolver struct {
	lookup service.MarketPriceLookup
	client service.CompletionService
	logger *slog.Logger
}

// NewResolver creates a resolver over the given lookup and completion client.
func NewResolver(lookup service.MarketPriceLookup, client service.CompletionService, logger *slog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		client: client,
		logger: logger,
	}
}

// Resolve returns the market-price match for a listing's GPU identity, or
// nil when the lookup yields nothing or fails. Lookup and completion
// failures are recovered here and never abort the batch; a nil result means
// the listing proceeds with unknown market price.
func (r *Resolver) Resolve(ctx context.Context, listing model.Listing, identity model.GPUIdentity) *model.PriceMatch {
	candidates, err := r.lookup.Query(ctx, identity)
	if err != nil {
		r.logger.Warn("market price lookup failed",
			"gpu", identity.String(),
			"error", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	selected := r.selectCandidate(ctx, listing, candidates)

	return &model.PriceMatch{
		Candidate: selected,
		Price:     selected.Price,
	}
}

// selectCandidate asks the completion service to choose the closest match by
// model number, memory size, and brand. Candidate #1 is the implicit best
// guess when matching is inconclusive; picking it on out-of-range or absent
// answers is a known approximation, not an error.
func (r *Resolver) selectCandidate(ctx context.Context, listing model.Listing, candidates []model.MarketPriceCandidate) model.MarketPriceCandidate {
	if r.client == nil || len(candidates) == 1 {
		return candidates[0]
	}

	prompt := r.buildPrompt(listing, candidates)

	response, err := r.client.Complete(ctx, prompt, 10)
	if err != nil {
		r.logger.Warn("match selection failed, defaulting to first candidate", "error", err)
		return candidates[0]
	}

	index, ok := parseMatchIndexResponse(response)
	if !ok || index > len(candidates) {
		r.logger.Debug("unusable match index, defaulting to first candidate",
			"response", strings.TrimSpace(response))
		return candidates[0]
	}

	return candidates[index-1]
}

func (r *Resolver) buildPrompt(listing model.Listing, candidates []model.MarketPriceCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are matching a GPU listing to market prices.

LISTING TO MATCH:
Title: %s
Description: %s

MARKET OPTIONS:
`, listing.Title, listing.Description)

	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s - €%.2f\n", i+1, c.Label, c.Price)
	}

	fmt.Fprintf(&b, `
INSTRUCTIONS:
- Match the listing to the most similar GPU model from the market options
- Consider GPU model numbers, memory size, and brand compatibility
- Return only the number (1-%d) of the best matching option
- If no good match exists, return the closest option

Answer:`, len(candidates))

	return b.String()
}
