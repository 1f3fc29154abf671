package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "onboard.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "onboard.yaml", file)
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", ValidationError("SSID and API URL are required").Build())

		c, ok := AsClassified(err)
		require.True(t, ok)
		assert.True(t, HasCategory(err, CategoryValidation))
		assert.False(t, c.CanRetry())
		assert.Equal(t, CategoryValidation, GetCategory(err))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		_, ok := AsClassified(err)
		assert.False(t, ok)
		assert.Equal(t, CategoryInternal, GetCategory(err))
	})
}

func TestErrorBuilder(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(cause, CategoryTransport, "heartbeat failed").
		Warning().
		NextTick().
		WithContext("endpoint", "https://h/hb").
		Build()

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.CanRetry())
	assert.False(t, err.IsFatal())
	assert.Equal(t, "[transport:warning] heartbeat failed: connection refused", err.Error())

	withMore := err.WithContext("status", 502)
	_, had := err.Context().Get("status")
	assert.False(t, had, "WithContext must not mutate the receiver")
	v, ok := withMore.Context().Get("status")
	require.True(t, ok)
	assert.Equal(t, 502, v)
}

func TestClassifiedErrorIs(t *testing.T) {
	a := StorageError("commit failed").Build()
	b := StorageError("commit failed").WithContext("namespace", "net").Build()
	c := StorageError("load failed").Build()

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
