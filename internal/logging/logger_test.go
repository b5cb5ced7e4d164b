package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestWithContext_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core)}

	ctx := context.WithValue(context.Background(), TraceIDKey, "t-1")
	ctx = context.WithValue(ctx, AdminIDKey, int64(7))
	l.WithContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, int64(7), fields["admin_id"])
}

func TestFromContext_Fallback(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core)}

	FromContext(context.Background(), l).Info("fallback")
	assert.Equal(t, 1, logs.Len())

	scoped := zap.New(core).With(zap.String("scope", "req"))
	ctx := IntoContext(context.Background(), scoped)
	FromContext(ctx, nil).Info("scoped")
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "req", logs.All()[1].ContextMap()["scope"])
}
