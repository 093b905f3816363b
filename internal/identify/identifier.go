// Package identify extracts canonical GPU identities from unstructured
// listing text, using a text-completion call with a strict output grammar
// and a local pattern-matching fallback.
package identify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nanopc/dealfinder/internal/common"
	"github.com/nanopc/dealfinder/internal/model"
	"github.com/nanopc/dealfinder/internal/service"
)

// Config holds configuration for the identifier.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Identifier resolves listing text into a GPUIdentity or determines none is
// present. A nil completion client puts the identifier in fallback-only mode.
type Identifier struct {
	client    service.CompletionService
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// New creates an identifier around the given completion client.
func New(client service.CompletionService, cfg Config, logger *slog.Logger) *Identifier {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     cfg.RetryDelay,
		Multiplier:   1.0, // fixed backoff between identification attempts
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
		retryOpts.MaxDelay = time.Second
	}

	return &Identifier{
		client:    client,
		logger:    logger,
		retryOpts: retryOpts,
	}
}

// Identify returns the GPU identity found in text, or nil when none is
// present. That nil is a normal outcome, not an error: persistent service
// failure counts as "no identity", and only context cancellation surfaces
// as an error. The pattern scan stands in for the service only when no
// client is configured.
func (i *Identifier) Identify(ctx context.Context, text string) (*model.GPUIdentity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if i.client == nil {
		return i.fallback(text), nil
	}

	prompt := i.buildPrompt(text)

	var identity *model.GPUIdentity
	err := common.WithRetry(ctx, func() error {
		response, err := i.client.Complete(ctx, prompt, 500)
		if err != nil {
			i.logger.Warn("identification attempt failed", "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		// A syntactically valid but rule-invalid answer, or a literal
		// NONE, is a definitive "no identity" and is not retried.
		if id, ok := parseIdentityResponse(response); ok {
			identity = &id
		}
		return nil
	}, i.retryOpts)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		i.logger.Warn("identification attempts exhausted, treating as no identity", "error", err)
		return nil, nil
	}

	return identity, nil
}

func (i *Identifier) fallback(text string) *model.GPUIdentity {
	identities := ScanText(text)
	if len(identities) == 0 {
		return nil
	}
	return &identities[0]
}

// ExtractKeywords extracts up to 20 GPU identities from a batch of listings.
// The completion path parses one BRAND,MODEL pair per response line; any
// service failure or empty result falls back to the local pattern scan.
func (i *Identifier) ExtractKeywords(ctx context.Context, listings []model.Listing) []model.GPUIdentity {
	texts := make([]string, 0, len(listings))
	for _, l := range listings {
		if t := l.CleanText(); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	if i.client != nil {
		sample := texts
		if len(sample) > 10 {
			sample = sample[:10]
		}
		prompt := fmt.Sprintf(`Extract GPU model keywords from these listings. Return format: BRAND,MODEL

Examples:
%s

Extract only GPU models (RTX, GTX, RX series). Return one per line:
RTX,3070
GTX,1660
RX,6700

Return only the keywords:`, strings.Join(sample, "\n"))

		response, err := i.client.Complete(ctx, prompt, 200)
		if err == nil {
			if identities := parseKeywordLines(response); len(identities) > 0 {
				return identities
			}
		} else {
			i.logger.Warn("keyword extraction failed, using pattern fallback", "error", err)
		}
	}

	return ScanText(texts...)
}

func (i *Identifier) buildPrompt(text string) string {
	return fmt.Sprintf(`Extract the GPU model from this listing text.

LISTING TEXT: %s

IMPORTANT: Return ONLY the GPU model in format: BRAND,MODEL
Valid brands: RTX, GTX, RX
Valid models: 3-4 digit numbers (e.g., 3070, 970, 570)

Examples: RTX,3070, GTX,970, RX,570

If no valid GPU model found, return: NONE

Answer:`, text)
}
