package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanopc/dealfinder/internal/model"
)

type mockLookup struct {
	candidates []model.MarketPriceCandidate
	err        error
	queries    []model.GPUIdentity
}

func (m *mockLookup) Query(_ context.Context, identity model.GPUIdentity) ([]model.MarketPriceCandidate, error) {
	m.queries = append(m.queries, identity)
	return m.candidates, m.err
}

type mockCompletion struct {
	response string
	err      error
	prompts  []string
}

func (m *mockCompletion) Complete(_ context.Context, prompt string, _ int) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func candidateSet(n int) []model.MarketPriceCandidate {
	candidates := make([]model.MarketPriceCandidate, n)
	for i := range candidates {
		candidates[i] = model.MarketPriceCandidate{
			Label: fmt.Sprintf("GeForce RTX 3070 variant %d", i+1),
			Price: 200 + float64(i)*10,
		}
	}
	return candidates
}

func testIdentity(t *testing.T) model.GPUIdentity {
	t.Helper()
	identity, err := model.NewGPUIdentity(model.BrandRTX, "3070")
	require.NoError(t, err)
	return identity
}

func TestResolve(t *testing.T) {
	logger := slog.Default()
	listing := model.Listing{Title: "RTX 3070 8GB", Description: "très bon état"}

	t.Run("selects the answered candidate", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		client := &mockCompletion{response: "2"}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 2", match.Candidate.Label)
		assert.InDelta(t, 210, match.Price, 0.001)
	})

	t.Run("wordy answer still parses", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		client := &mockCompletion{response: "The best match is option 3."}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.InDelta(t, 220, match.Price, 0.001)
	})

	t.Run("out-of-range answer defaults to first candidate", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		client := &mockCompletion{response: "7"}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 1", match.Candidate.Label)
	})

	t.Run("unusable answer defaults to first candidate", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		client := &mockCompletion{response: "none of these match"}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 1", match.Candidate.Label)
	})

	t.Run("completion failure defaults to first candidate", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		client := &mockCompletion{err: fmt.Errorf("boom")}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 1", match.Candidate.Label)
	})

	t.Run("single candidate skips the completion call", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(1)}
		client := &mockCompletion{response: "should not be used"}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Empty(t, client.prompts)
	})

	t.Run("nil client picks first candidate", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(3)}
		resolver := NewResolver(lookup, nil, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 1", match.Candidate.Label)
	})

	t.Run("lookup failure yields no match", func(t *testing.T) {
		lookup := &mockLookup{err: fmt.Errorf("timeout")}
		resolver := NewResolver(lookup, &mockCompletion{}, logger)

		assert.Nil(t, resolver.Resolve(context.Background(), listing, testIdentity(t)))
	})

	t.Run("empty lookup yields no match", func(t *testing.T) {
		lookup := &mockLookup{}
		resolver := NewResolver(lookup, &mockCompletion{}, logger)

		assert.Nil(t, resolver.Resolve(context.Background(), listing, testIdentity(t)))
	})

	t.Run("candidate list is capped", func(t *testing.T) {
		lookup := &mockLookup{candidates: candidateSet(15)}
		client := &mockCompletion{response: "10"}
		resolver := NewResolver(lookup, client, logger)

		match := resolver.Resolve(context.Background(), listing, testIdentity(t))
		require.NotNil(t, match)
		assert.Equal(t, "GeForce RTX 3070 variant 10", match.Candidate.Label)

		require.Len(t, client.prompts, 1)
		assert.NotContains(t, client.prompts[0], "variant 11")
	})
}

func TestParseMatchIndexResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		index int
		ok    bool
	}{
		{"bare digit", "3", 3, true},
		{"ten", "10", 10, true},
		{"wordy", "Option 4 is closest", 4, true},
		{"zero is rejected", "0", 0, false},
		{"eleven is rejected", "11", 0, false},
		{"no digits", "none match", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := parseMatchIndexResponse(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, index)
			}
		})
	}
}
