package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nanopc/dealfinder/internal/cli"
	"github.com/nanopc/dealfinder/internal/identify"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Extract GPU keywords from current marketplace listings",
		Long: `Fetch current listings from the configured marketplaces and extract the
set of GPU models they mention, as BRAND,MODEL keywords suitable for
narrower follow-up searches (dealfinder run --query "rtx 3070").

Works without an API key: when no completion service is configured the
keywords come from a pattern scan of the listing text.`,
		RunE: runKeywords,
	}

	cmd.Flags().StringP("query", "q", "carte graphique", "marketplace search query")
	cmd.Flags().Int("fetch-limit", 100, "raw listings fetched per source")

	_ = viper.BindPFlag("keywords.query", cmd.Flags().Lookup("query"))
	_ = viper.BindPFlag("keywords.fetch_limit", cmd.Flags().Lookup("fetch-limit"))

	return cmd
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	// Unlike run, a missing credential is not fatal here: the batch
	// extraction degrades to the local pattern scan.
	var completion service.CompletionService
	if client, err := createCompletionClient(); err == nil {
		completion = client
		defer func() { _ = client.Close() }()
	} else {
		logger.Warn("completion service unavailable, extracting via pattern scan", "error", err)
	}

	sources, err := createSources()
	if err != nil {
		return err
	}

	query := viper.GetString("keywords.query")
	fetchLimit := viper.GetInt("keywords.fetch_limit")

	var listings []model.Listing
	for _, src := range sources {
		fetched, err := src.Fetch(ctx, query, fetchLimit)
		if err != nil {
			logger.Error("source fetch failed", "source", src.Name(), "error", err)
			continue
		}
		listings = append(listings, fetched...)
	}

	if len(listings) == 0 {
		fmt.Println(cli.WarningStyle.Render("No listings fetched — nothing to extract."))
		return nil
	}

	identifier := identify.New(completion, identify.Config{
		MaxRetries: viper.GetInt("llm.max_retries"),
		RetryDelay: viper.GetDuration("llm.retry_delay"),
	}, logger)

	identities := identifier.ExtractKeywords(ctx, listings)
	if len(identities) == 0 {
		fmt.Println(cli.WarningStyle.Render("No GPU keywords found in the fetched listings."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("GPU keywords (%d listings scanned)", len(listings))))
	for _, identity := range identities {
		fmt.Printf("  %s %s\n", cli.BoldStyle.Render(identity.Keyword()), cli.SubtleStyle.Render(identity.String()))
	}

	return nil
}
