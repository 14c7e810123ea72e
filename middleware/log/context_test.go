package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTraceIDContext(t *testing.T) {
	t.Run("adds provided trace ID to context", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "test-trace-123")
		require.NotNil(t, ctx)
		assert.Equal(t, "test-trace-123", GetTraceID(ctx))
	})

	t.Run("generates new trace ID when empty string provided", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "")
		require.NotNil(t, ctx)

		traceID := GetTraceID(ctx)
		assert.NotEmpty(t, traceID)
		// Verify it's a valid UUID format (36 characters with hyphens)
		assert.Len(t, traceID, 36)
	})
}

func TestGetTraceID(t *testing.T) {
	t.Run("returns empty string when no trace ID in context", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
	})

	t.Run("returns empty string when trace ID is wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), TraceIDKey, 12345)
		assert.Empty(t, GetTraceID(ctx))
	})
}

func TestNewTraceID(t *testing.T) {
	t.Run("generates unique IDs", func(t *testing.T) {
		ids := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewTraceID()
			assert.Len(t, id, 36)
			assert.False(t, ids[id], "duplicate ID generated: %s", id)
			ids[id] = true
		}
	})
}
