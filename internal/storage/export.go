package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nanopc/dealfinder/internal/model"
)

// WriteJSON writes the scored-deal collection as a single JSON document,
// fully replacing any prior file. The write goes through a temp file and
// rename so the dashboard never observes a half-written document. An empty
// collection still produces a valid file.
func WriteJSON(path string, deals []model.ScoredDeal) error {
	if deals == nil {
		deals = []model.ScoredDeal{}
	}

	data, err := json.MarshalIndent(deals, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deals: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".deals-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write deals: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	return nil
}

// WriteCSV writes the scored deals as CSV for spreadsheet consumers.
func WriteCSV(w io.Writer, deals []model.ScoredDeal) error {
	cw := csv.NewWriter(w)

	header := []string{
		"source", "title", "url", "listing_price", "current_price",
		"gpu", "rating", "matched_title", "matched_price", "seller", "created_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, deal := range deals {
		gpu := ""
		if deal.Identity != nil {
			gpu = deal.Identity.String()
		}
		matchedLabel, matchedPrice := "", ""
		if deal.MatchedItem != nil {
			matchedLabel = deal.MatchedItem.Label
			matchedPrice = formatPrice(model.Float64Ptr(deal.MatchedItem.Price))
		}

		record := []string{
			string(deal.Source),
			deal.Title,
			deal.URL,
			formatPrice(deal.ListingPrice),
			formatPrice(deal.MarketPrice),
			gpu,
			strconv.Itoa(deal.Rating),
			matchedLabel,
			matchedPrice,
			deal.SellerName,
			deal.CreatedAt,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(*v, 'f', 2, 64), "0"), ".")
}
