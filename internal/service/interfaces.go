// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/nanopc/dealfinder/internal/model"
)

// ListingSource yields raw marketplace listings, already normalized to the
// canonical record shape at the adapter boundary. Implementations own all
// network retrieval details; the pipeline never dereferences listing URLs.
type ListingSource interface {
	Name() model.Source
	Fetch(ctx context.Context, query string, maxResults int) ([]model.Listing, error)
}

// MarketPriceLookup obtains comparable-product candidates for a GPU identity.
// Implementations return at most ten candidates with no relevance ordering
// guarantee; index 0 is only a fallback default, not the best match.
type MarketPriceLookup interface {
	Query(ctx context.Context, identity model.GPUIdentity) ([]model.MarketPriceCandidate, error)
}

// CompletionService is a single-turn, stateless text-completion capability.
// There is no conversation memory between calls.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// DealFilter defines filtering options for stored deal queries.
type DealFilter struct {
	Source    model.Source
	MinRating int
	Limit     int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Run operations. A run is one full pipeline execution; its deals
	// supersede (never merge with) the previous run's.
	SaveRun(ctx context.Context, deals []model.ScoredDeal) (runID int64, err error)
	GetLatestRun(ctx context.Context) (*RunRecord, error)
	GetDeals(ctx context.Context, runID int64, filter DealFilter) ([]model.ScoredDeal, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RunRecord describes one persisted pipeline run.
type RunRecord struct {
	CompletedAt time.Time
	ID          int64
	DealCount   int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// RunStats shows the results of a pipeline run. Deduplicated counts only
// duplicate-title removals; listings trimmed by the per-source cap are
// counted in Capped.
type RunStats struct {
	Duration     time.Duration
	TotalFetched int
	Deduplicated int
	Capped       int
	Processed    int
	Identified   int
	PriceMatched int
}
