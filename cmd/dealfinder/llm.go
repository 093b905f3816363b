package main

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/nanopc/dealfinder/internal/common"
	"github.com/nanopc/dealfinder/internal/llm"
)

// createCompletionClient builds the OpenRouter client from configuration.
// A missing API key is a fatal precondition, reported before any network
// activity begins.
func createCompletionClient() (*llm.OpenRouterClient, error) {
	apiKey := viper.GetString("llm.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		return nil, common.NewUserError(
			"OpenRouter API key not found: set llm.api_key in the config file or the OPENROUTER_API_KEY environment variable",
			common.ErrMissingConfig)
	}

	cfg := llm.Config{
		APIKey:      apiKey,
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		Timeout:     viper.GetDuration("llm.timeout"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return llm.NewOpenRouterClient(cfg)
}
