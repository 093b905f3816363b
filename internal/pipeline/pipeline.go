// Package pipeline implements the deal-scoring orchestrator: it sequences
// normalization, GPU identification, market-price resolution and rating over
// a batch of listings and produces the sorted scored collection.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nanopc/dealfinder/internal/identify"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/pricing"
	"github.com/nanopc/dealfinder/internal/rating"
	"github.com/nanopc/dealfinder/internal/service"
)

// Config holds configuration options for the pipeline.
type Config struct {
	// Query is the marketplace search term.
	Query string
	// FetchLimit caps how many raw listings each source may return.
	FetchLimit int
	// MaxPerSource caps how many deduplicated listings per source are
	// fully processed; completion calls are the cost driver.
	MaxPerSource int
	// ListingDelay is the pause between per-listing completion call
	// sequences, trading throughput for service stability. Zero selects
	// the default; a negative value disables the pause.
	ListingDelay time.Duration
	// OnListing, if set, is invoked before each listing is processed.
	OnListing func(index, total int, listing model.Listing)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Query:        "carte graphique",
		FetchLimit:   100,
		MaxPerSource: 10,
		ListingDelay: 500 * time.Millisecond,
	}
}

// Pipeline orchestrates the scoring of marketplace listings. Processing is
// fully sequential: the completion service is the shared external resource
// and concurrent calls risk burst rate-limiting.
type Pipeline struct {
	identifier *identify.Identifier
	resolver   *pricing.Resolver
	rater      *rating.Rater
	logger     *slog.Logger
	sources    []service.ListingSource
	cfg        Config
}

// New creates a pipeline with the given dependencies.
func New(sources []service.ListingSource, identifier *identify.Identifier, resolver *pricing.Resolver, rater *rating.Rater, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.Query == "" {
		cfg.Query = DefaultConfig().Query
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultConfig().FetchLimit
	}
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = DefaultConfig().MaxPerSource
	}
	if cfg.ListingDelay == 0 {
		cfg.ListingDelay = DefaultConfig().ListingDelay
	}

	return &Pipeline{
		sources:    sources,
		identifier: identifier,
		resolver:   resolver,
		rater:      rater,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run fetches, deduplicates and scores listings, returning the collection
// sorted descending by rating (ties keep input order). Source failures are
// logged and skipped; a best-effort result set is always returned. On
// context cancellation the deals completed so far are returned alongside
// the context error, so a cancelled run does not lose finished work.
func (p *Pipeline) Run(ctx context.Context) ([]model.ScoredDeal, service.RunStats, error) {
	started := time.Now()
	stats := service.RunStats{}

	var fetched []model.Listing
	for _, src := range p.sources {
		listings, err := src.Fetch(ctx, p.cfg.Query, p.cfg.FetchLimit)
		if err != nil {
			p.logger.Error("source fetch failed", "source", src.Name(), "error", err)
			continue
		}
		p.logger.Info("fetched listings", "source", src.Name(), "count", len(listings))
		fetched = append(fetched, listings...)
	}
	stats.TotalFetched = len(fetched)

	unique := p.deduplicate(fetched)
	stats.Deduplicated = stats.TotalFetched - len(unique)

	batch := p.capPerSource(unique)
	stats.Capped = len(unique) - len(batch)

	deals := make([]model.ScoredDeal, 0, len(batch))
	for i, listing := range batch {
		select {
		case <-ctx.Done():
			stats.Processed = len(deals)
			stats.Duration = time.Since(started)
			return p.sorted(deals), stats, ctx.Err()
		default:
		}

		if p.cfg.OnListing != nil {
			p.cfg.OnListing(i, len(batch), listing)
		}

		deal := p.processListing(ctx, listing)
		if deal.Identity != nil {
			stats.Identified++
		}
		if deal.MarketPrice != nil {
			stats.PriceMatched++
		}
		deals = append(deals, deal)

		if p.cfg.ListingDelay > 0 && i < len(batch)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(p.cfg.ListingDelay):
			}
		}
	}

	stats.Processed = len(deals)
	stats.Duration = time.Since(started)
	return p.sorted(deals), stats, nil
}

// processListing runs one listing end-to-end. Unknown failures, including
// panics, are caught at the listing boundary: the listing is treated as
// failed-to-identify and keeps the neutral rating.
func (p *Pipeline) processListing(ctx context.Context, listing model.Listing) (deal model.ScoredDeal) {
	deal = model.NewScoredDeal(listing)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("listing processing panicked",
				"title", listing.Title,
				"panic", r)
			deal = model.NewScoredDeal(listing)
		}
	}()

	identity, err := p.identifier.Identify(ctx, listing.CleanText())
	if err != nil || identity == nil {
		return deal
	}

	deal.Identity = identity
	deal.AIKeywords = []string{identity.Keyword()}

	var marketPrice *float64
	if match := p.resolver.Resolve(ctx, listing, *identity); match != nil {
		marketPrice = model.Float64Ptr(match.Price)
		deal.MarketPrice = marketPrice
		candidate := match.Candidate
		deal.MatchedItem = &candidate
	}

	deal.Rating = p.rater.Rate(ctx, listing.Price, marketPrice)
	return deal
}

// deduplicate drops listings without a title and removes duplicates by
// case-folded trimmed title. First occurrence wins; input order decides
// precedence.
func (p *Pipeline) deduplicate(listings []model.Listing) []model.Listing {
	seen := make(map[string]bool, len(listings))
	unique := make([]model.Listing, 0, len(listings))

	for _, listing := range listings {
		key := listing.TitleKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, listing)
	}
	return unique
}

// capPerSource keeps at most MaxPerSource listings per source, preserving
// relative order.
func (p *Pipeline) capPerSource(listings []model.Listing) []model.Listing {
	counts := make(map[model.Source]int)
	capped := make([]model.Listing, 0, len(listings))

	for _, listing := range listings {
		if counts[listing.Source] >= p.cfg.MaxPerSource {
			continue
		}
		counts[listing.Source]++
		capped = append(capped, listing)
	}
	return capped
}

// sorted orders deals descending by rating; ties keep relative input order.
func (p *Pipeline) sorted(deals []model.ScoredDeal) []model.ScoredDeal {
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Rating > deals[j].Rating
	})
	return deals
}
