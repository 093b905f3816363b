package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nanopc/dealfinder/internal/cli"
	"github.com/nanopc/dealfinder/internal/config"
	"github.com/nanopc/dealfinder/internal/identify"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/pipeline"
	"github.com/nanopc/dealfinder/internal/pricing"
	"github.com/nanopc/dealfinder/internal/rating"
	"github.com/nanopc/dealfinder/internal/service"
	"github.com/nanopc/dealfinder/internal/source"
	"github.com/nanopc/dealfinder/internal/storage"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, score and persist GPU deals",
		Long: `Fetch graphics-card listings from the configured marketplaces, identify
the GPU in each one, look up its market price, and score every listing 1-10.

The scored collection is written to the database and to a JSON document that
fully replaces the previous run's output.

Examples:
  dealfinder run                      # default query, 10 listings per source
  dealfinder run --max-per-source 25  # process more listings per source
  dealfinder run --query "rtx 4070"   # narrow the marketplace search`,
		RunE: runPipeline,
	}

	cmd.Flags().StringP("query", "q", "carte graphique", "marketplace search query")
	cmd.Flags().StringP("output", "o", "gpu_deals.json", "JSON output path")
	cmd.Flags().Int("max-per-source", 10, "listings fully processed per source")
	cmd.Flags().Int("fetch-limit", 100, "raw listings fetched per source")
	cmd.Flags().Duration("delay", 500*time.Millisecond, "pause between per-listing AI calls")

	_ = viper.BindPFlag("pipeline.query", cmd.Flags().Lookup("query"))
	_ = viper.BindPFlag("pipeline.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("pipeline.max_per_source", cmd.Flags().Lookup("max-per-source"))
	_ = viper.BindPFlag("pipeline.fetch_limit", cmd.Flags().Lookup("fetch-limit"))
	_ = viper.BindPFlag("pipeline.listing_delay", cmd.Flags().Lookup("delay"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Precondition: credential must exist before any network activity.
	completion, err := createCompletionClient()
	if err != nil {
		return err
	}
	defer func() { _ = completion.Close() }()

	db, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	sources, err := createSources()
	if err != nil {
		return err
	}

	lookup, err := pricing.NewComparisonClient(pricing.ComparisonOptions{
		BaseURL: viper.GetString("pricing.base_url"),
		Timeout: viper.GetDuration("pricing.timeout"),
	})
	if err != nil {
		return fmt.Errorf("failed to create price-comparison client: %w", err)
	}

	logger := slog.Default()
	identifier := identify.New(completion, identify.Config{
		MaxRetries: viper.GetInt("llm.max_retries"),
		RetryDelay: viper.GetDuration("llm.retry_delay"),
	}, logger)
	resolver := pricing.NewResolver(lookup, completion, logger)
	rater := rating.New(completion, logger)

	var bar *progressbar.ProgressBar
	cfg := pipeline.Config{
		Query:        viper.GetString("pipeline.query"),
		FetchLimit:   viper.GetInt("pipeline.fetch_limit"),
		MaxPerSource: viper.GetInt("pipeline.max_per_source"),
		ListingDelay: viper.GetDuration("pipeline.listing_delay"),
		OnListing: func(index, total int, listing model.Listing) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Scoring listings..."),
				)
			}
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		},
	}

	p := pipeline.New(sources, identifier, resolver, rater, cfg, logger)

	deals, stats, runErr := p.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	// A completed run always persists output, even when empty or
	// interrupted: each scored deal is independently complete.
	outputPath := config.ExpandPath(viper.GetString("pipeline.output"))
	if err := storage.WriteJSON(outputPath, deals); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if _, err := db.SaveRun(ctx, deals); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	printRunSummary(deals, stats, outputPath)

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

func openStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/dealfinder/dealfinder.db"
	}
	dbPath = config.ExpandPath(dbPath)

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func createSources() ([]service.ListingSource, error) {
	timeout := viper.GetDuration("sources.timeout")

	vinted, err := source.NewVintedSource(source.Options{
		BaseURL: viper.GetString("sources.vinted_base_url"),
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vinted source: %w", err)
	}

	leboncoin, err := source.NewLeboncoinSource(source.Options{
		BaseURL: viper.GetString("sources.leboncoin_base_url"),
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create leboncoin source: %w", err)
	}

	return []service.ListingSource{vinted, leboncoin}, nil
}

func printRunSummary(deals []model.ScoredDeal, stats service.RunStats, outputPath string) {
	if len(deals) == 0 {
		fmt.Println(cli.WarningStyle.Render("No deals found — output file written empty."))
		return
	}

	fmt.Println(cli.TitleStyle.Render("Top GPU deals"))
	top := deals
	if len(top) > 10 {
		top = top[:10]
	}
	for i, deal := range top {
		price := "?"
		if deal.ListingPrice != nil {
			price = fmt.Sprintf("€%.0f", *deal.ListingPrice)
		}
		market := "?"
		if deal.MarketPrice != nil {
			market = fmt.Sprintf("€%.0f", *deal.MarketPrice)
		}
		gpu := "unidentified"
		if deal.Identity != nil {
			gpu = deal.Identity.String()
		}
		fmt.Printf("%2d. %s %s\n", i+1, cli.FormatRating(deal.Rating), cli.BoldStyle.Render(truncate(deal.Title, 60)))
		fmt.Printf("    %s\n", cli.SubtleStyle.Render(
			fmt.Sprintf("%s | price %s | market %s | %s", deal.Source, price, market, gpu)))
	}

	fmt.Println()
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
		"Processed %d listings (%d fetched, %d duplicates removed, %d over cap, %d identified, %d price-matched) in %s",
		stats.Processed, stats.TotalFetched, stats.Deduplicated, stats.Capped,
		stats.Identified, stats.PriceMatched, stats.Duration.Round(time.Second))))
	fmt.Println(cli.SubtleStyle.Render("Results saved to " + outputPath))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
