package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider down")

func failing(ctx context.Context) (interface{}, error) {
	return nil, errProviderDown
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker(Settings{
		Name:             "nominatim-open-test",
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, NoopFallback)

	for i := 0; i < 2; i++ {
		_, err := b.Execute(context.Background(), failing)
		assert.ErrorIs(t, err, errProviderDown)
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		t.Fatal("operation must not run while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_CanceledDoesNotTrip(t *testing.T) {
	b := NewCircuitBreaker(Settings{Name: "cancel-test", FailureThreshold: 1}, NoopFallback)

	_, err := b.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestCircuitBreaker_GracefulDegradation(t *testing.T) {
	b := NewCircuitBreaker(Settings{Name: "degrade-test", FailureThreshold: 1, Timeout: time.Minute}, GracefulDegradation("opencage"))

	_, _ = b.Execute(context.Background(), failing)
	result, err := b.Execute(context.Background(), failing)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_GeneratedName(t *testing.T) {
	b := NewCircuitBreaker(Settings{}, nil)
	assert.Contains(t, b.Name(), "provider-")

	result, err := b.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestProviderSettings(t *testing.T) {
	s := ProviderSettings("bigdatacloud")

	assert.Equal(t, "bigdatacloud", s.Name)
	assert.Equal(t, uint32(3), s.FailureThreshold)
	assert.Equal(t, 60*time.Second, s.Timeout)
	assert.Equal(t, 2*time.Minute, s.Interval)
}

func TestBuildSettings_Defaults(t *testing.T) {
	s := BuildSettings("x", 0, 0, 0, 0)

	assert.Equal(t, time.Minute, s.Interval)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, uint32(5), s.FailureThreshold)
	assert.Equal(t, uint32(1), s.SuccessThreshold)
}
