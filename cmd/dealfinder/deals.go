package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nanopc/dealfinder/internal/cli"
	"github.com/nanopc/dealfinder/internal/common"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
	"github.com/nanopc/dealfinder/internal/storage"
)

func dealsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "Browse and export scored deals",
	}

	cmd.AddCommand(dealsListCmd())
	cmd.AddCommand(dealsExportCmd())

	return cmd
}

func dealsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals from the latest run",
		RunE:  runDealsList,
	}

	cmd.Flags().String("source", "", "filter by marketplace source")
	cmd.Flags().Int("min-rating", 0, "only show deals rated at least this")
	cmd.Flags().IntP("limit", "n", 0, "limit the number of deals shown")

	return cmd
}

func runDealsList(cmd *cobra.Command, _ []string) error {
	db, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sourceFilter, _ := cmd.Flags().GetString("source")
	minRating, _ := cmd.Flags().GetInt("min-rating")
	limit, _ := cmd.Flags().GetInt("limit")

	deals, run, err := latestDeals(cmd, db, service.DealFilter{
		Source:    model.Source(sourceFilter),
		MinRating: minRating,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if len(deals) == 0 {
		fmt.Println(cli.WarningStyle.Render("No deals match."))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Rating", "Title", "Source", "Price", "Market", "GPU"})
	for i, deal := range deals {
		price, market := "?", "?"
		if deal.ListingPrice != nil {
			price = fmt.Sprintf("€%.0f", *deal.ListingPrice)
		}
		if deal.MarketPrice != nil {
			market = fmt.Sprintf("€%.0f", *deal.MarketPrice)
		}
		gpu := ""
		if deal.Identity != nil {
			gpu = deal.Identity.String()
		}
		t.AppendRow(table.Row{
			i + 1, cli.FormatRating(deal.Rating), truncate(deal.Title, 50),
			deal.Source, price, market, gpu,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
		"Run #%d, completed %s, %d deals total",
		run.ID, run.CompletedAt.Format("2006-01-02 15:04"), run.DealCount)))

	return nil
}

func dealsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the latest run's deals",
		RunE:  runDealsExport,
	}

	cmd.Flags().String("format", "csv", "export format (csv, json)")
	cmd.Flags().StringP("output", "o", "", "output path (default: stdout for csv)")
	cmd.Flags().Int("min-rating", 0, "only export deals rated at least this")

	return cmd
}

func runDealsExport(cmd *cobra.Command, _ []string) error {
	db, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	minRating, _ := cmd.Flags().GetInt("min-rating")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	deals, _, err := latestDeals(cmd, db, service.DealFilter{MinRating: minRating})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		if output == "" {
			output = viper.GetString("pipeline.output")
			if output == "" {
				output = "gpu_deals.json"
			}
		}
		if err := storage.WriteJSON(output, deals); err != nil {
			return err
		}
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d deals to %s", len(deals), output)))
	case "csv":
		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := storage.WriteCSV(w, deals); err != nil {
			return err
		}
		if output != "" {
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d deals to %s", len(deals), output)))
		}
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}

	return nil
}

func latestDeals(cmd *cobra.Command, db *storage.SQLiteStorage, filter service.DealFilter) ([]model.ScoredDeal, *service.RunRecord, error) {
	ctx := cmd.Context()

	run, err := db.GetLatestRun(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("no runs recorded yet — run 'dealfinder run' first")
	}
	if err != nil {
		return nil, nil, err
	}

	deals, err := db.GetDeals(ctx, run.ID, filter)
	if err != nil {
		return nil, nil, err
	}
	return deals, run, nil
}
