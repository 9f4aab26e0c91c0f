package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Environments(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		t.Run(env, func(t *testing.T) {
			require.NoError(t, Init(env))
			assert.NotNil(t, Get())
		})
	}
}

func TestWithContext_AddsCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Get()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	ctx := ContextWithCorrelationID(context.Background(), "req-42")
	WithContext(ctx).Info("scored")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["correlation_id"])
}

func TestWithContext_NoCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Get()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	WithContext(context.Background()).Info("scored")

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["correlation_id"]
	assert.False(t, ok)
}
