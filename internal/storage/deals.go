package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nanopc/dealfinder/internal/common"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
)

// SaveRun records a completed pipeline run and its deals in one transaction.
// Positions preserve the pipeline's sort order so reads reproduce it. An
// empty deal slice is still a valid run.
func (s *SQLiteStorage) SaveRun(ctx context.Context, deals []model.ScoredDeal) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `INSERT INTO runs (deal_count) VALUES (?)`, len(deals))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO deals (
		run_id, position, source, title, url, listing_price, market_price,
		gpu_brand, gpu_model, rating, image_url, seller_name, created_at,
		description, matched_label, matched_price, matched_url
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare deal insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, deal := range deals {
		var gpuBrand, gpuModel any
		if deal.Identity != nil {
			gpuBrand = string(deal.Identity.Brand)
			gpuModel = deal.Identity.Model
		}

		var matchedLabel, matchedURL any
		var matchedPrice any
		if deal.MatchedItem != nil {
			matchedLabel = deal.MatchedItem.Label
			matchedPrice = deal.MatchedItem.Price
			matchedURL = deal.MatchedItem.URL
		}

		if _, err := stmt.ExecContext(ctx,
			runID, i, string(deal.Source), deal.Title, deal.URL,
			nullableFloat(deal.ListingPrice), nullableFloat(deal.MarketPrice),
			gpuBrand, gpuModel, deal.Rating, deal.ImageURL, deal.SellerName,
			deal.CreatedAt, deal.Description,
			matchedLabel, matchedPrice, matchedURL,
		); err != nil {
			return 0, fmt.Errorf("failed to insert deal %q: %w", deal.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// GetLatestRun returns the most recent run record.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context) (*service.RunRecord, error) {
	var record service.RunRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, completed_at, deal_count FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&record.ID, &record.CompletedAt, &record.DealCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &record, nil
}

// GetDeals returns a run's deals in their persisted (rating-sorted) order.
func (s *SQLiteStorage) GetDeals(ctx context.Context, runID int64, filter service.DealFilter) ([]model.ScoredDeal, error) {
	query := `SELECT source, title, url, listing_price, market_price,
		gpu_brand, gpu_model, rating, image_url, seller_name, created_at,
		description, matched_label, matched_price, matched_url
	FROM deals WHERE run_id = ?`
	args := []any{runID}

	var conditions []string
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.MinRating > 0 {
		conditions = append(conditions, "rating >= ?")
		args = append(args, filter.MinRating)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY position"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var deals []model.ScoredDeal
	for rows.Next() {
		var deal model.ScoredDeal
		var listingPrice, marketPrice, matchedPrice sql.NullFloat64
		var gpuBrand, gpuModel, matchedLabel, matchedURL sql.NullString

		if err := rows.Scan(
			&deal.Source, &deal.Title, &deal.URL, &listingPrice, &marketPrice,
			&gpuBrand, &gpuModel, &deal.Rating, &deal.ImageURL, &deal.SellerName,
			&deal.CreatedAt, &deal.Description,
			&matchedLabel, &matchedPrice, &matchedURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}

		if listingPrice.Valid {
			deal.ListingPrice = model.Float64Ptr(listingPrice.Float64)
		}
		if marketPrice.Valid {
			deal.MarketPrice = model.Float64Ptr(marketPrice.Float64)
		}

		deal.AIKeywords = []string{}
		if gpuBrand.Valid && gpuModel.Valid {
			identity, err := model.NewGPUIdentity(model.GPUBrand(gpuBrand.String), gpuModel.String)
			if err == nil {
				deal.Identity = &identity
				deal.AIKeywords = []string{identity.Keyword()}
			}
		}

		if matchedLabel.Valid {
			deal.MatchedItem = &model.MarketPriceCandidate{
				Label: matchedLabel.String,
				Price: matchedPrice.Float64,
				URL:   matchedURL.String,
			}
		}

		deals = append(deals, deal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}

	return deals, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
