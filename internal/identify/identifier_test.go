package identify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanopc/dealfinder/internal/model"
)

// mockCompletion is a test implementation of service.CompletionService.
type mockCompletion struct {
	responses []string
	errors    []error
	prompts   []string
	calls     int
	mu        sync.Mutex
}

func (m *mockCompletion) Complete(_ context.Context, prompt string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return "", m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", fmt.Errorf("no more mock responses (call %d)", idx)
}

func testConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestIdentify(t *testing.T) {
	logger := slog.Default()

	t.Run("valid response", func(t *testing.T) {
		client := &mockCompletion{responses: []string{"RTX,3070"}}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "RTX 3070 8GB like new")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, model.BrandRTX, identity.Brand)
		assert.Equal(t, "3070", identity.Model)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("literal NONE is not retried", func(t *testing.T) {
		client := &mockCompletion{responses: []string{"NONE"}}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "Tour complète i5")
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("rule-invalid answer is not retried", func(t *testing.T) {
		client := &mockCompletion{responses: []string{"ARC,750"}}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "Intel Arc 750")
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("retry exhaustion returns no identity", func(t *testing.T) {
		// Even when the text plainly names a GPU: persistent service
		// failure is a definitive "none" on this path.
		client := &mockCompletion{
			errors: []error{
				fmt.Errorf("boom"),
				fmt.Errorf("boom"),
				fmt.Errorf("boom"),
			},
		}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "Vends GTX 1080 Ti")
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.Equal(t, 3, client.calls)
	})

	t.Run("transient failure then success", func(t *testing.T) {
		client := &mockCompletion{
			errors:    []error{fmt.Errorf("boom"), nil},
			responses: []string{"", "RX,580"},
		}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "Radeon RX 580")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, model.BrandRX, identity.Brand)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("nil client uses fallback mode", func(t *testing.T) {
		identifier := New(nil, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "GeForce RTX 3060 12GB")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, model.BrandRTX, identity.Brand)
		assert.Equal(t, "3060", identity.Model)
	})

	t.Run("empty text", func(t *testing.T) {
		client := &mockCompletion{}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "   ")
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.Equal(t, 0, client.calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := &mockCompletion{
			errors: []error{fmt.Errorf("boom"), fmt.Errorf("boom"), fmt.Errorf("boom")},
		}
		identifier := New(client, testConfig(), logger)

		_, err := identifier.Identify(ctx, "RTX 3070")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIdentifyValidity(t *testing.T) {
	// Any non-nil identity must satisfy the closed brand set and the
	// 3-4 digit model rule, whatever the service answered.
	responses := []string{"RTX,3070", "GeForce,970", "Radeon,6700", "RTX,RTX 4080 Super"}
	logger := slog.Default()

	for _, resp := range responses {
		client := &mockCompletion{responses: []string{resp}}
		identifier := New(client, testConfig(), logger)

		identity, err := identifier.Identify(context.Background(), "some listing")
		require.NoError(t, err)
		require.NotNil(t, identity, "response %q", resp)

		_, err = model.NewGPUIdentity(identity.Brand, identity.Model)
		assert.NoError(t, err, "response %q produced invalid identity", resp)
	}
}

func TestExtractKeywords(t *testing.T) {
	logger := slog.Default()
	listings := []model.Listing{
		{Title: "RTX 3070 8GB"},
		{Title: "GTX 1660 Super"},
	}

	t.Run("completion path", func(t *testing.T) {
		client := &mockCompletion{responses: []string{"RTX,3070\nGTX,1660"}}
		identifier := New(client, testConfig(), logger)

		identities := identifier.ExtractKeywords(context.Background(), listings)
		require.Len(t, identities, 2)
		assert.Equal(t, "RTX,3070", identities[0].Keyword())
		assert.Equal(t, "GTX,1660", identities[1].Keyword())
	})

	t.Run("service failure falls back to pattern scan", func(t *testing.T) {
		client := &mockCompletion{errors: []error{fmt.Errorf("boom")}}
		identifier := New(client, testConfig(), logger)

		identities := identifier.ExtractKeywords(context.Background(), listings)
		require.Len(t, identities, 2)
		assert.Equal(t, "RTX,3070", identities[0].Keyword())
	})

	t.Run("unusable response falls back to pattern scan", func(t *testing.T) {
		client := &mockCompletion{responses: []string{"sorry, I cannot help"}}
		identifier := New(client, testConfig(), logger)

		identities := identifier.ExtractKeywords(context.Background(), listings)
		require.Len(t, identities, 2)
	})

	t.Run("no usable text", func(t *testing.T) {
		client := &mockCompletion{}
		identifier := New(client, testConfig(), logger)

		identities := identifier.ExtractKeywords(context.Background(), []model.Listing{{Title: " "}})
		assert.Empty(t, identities)
		assert.Equal(t, 0, client.calls)
	})
}
