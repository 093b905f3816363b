package common

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	t.Run("valid configurations", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			for _, format := range []string{"console", "json"} {
				assert.NoError(t, SetupLogger(level, format), "level %s format %s", level, format)
			}
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := SetupLogger("trace", "console")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid format", func(t *testing.T) {
		err := SetupLogger("info", "xml")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestUserError(t *testing.T) {
	inner := errors.New("boom")
	err := NewUserError("something went wrong", inner)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "something went wrong", userErr.UserMessage)
	assert.Equal(t, "something went wrong: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewUserError("just a message", nil)
	assert.Equal(t, "just a message", bare.Error())
}
