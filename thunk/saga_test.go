package thunk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSagaRunsStepsInOrderFeedingResultsForward(t *testing.T) {
	// Arrange
	var seen []any
	saga := NewSagaBuilder("provision", nil).
		WithStep("create-account", func(ctx context.Context, data any) (any, error) {
			seen = append(seen, data)
			return "account-1", nil
		}).
		WithStep("create-profile", func(ctx context.Context, data any) (any, error) {
			seen = append(seen, data)
			return "profile-1", nil
		}).
		Build()

	// Act
	result, err := saga.Run(context.Background(), "start")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "profile-1", result)
	assert.Equal(t, []any{"start", "account-1"}, seen)
}

func TestSagaCompensatesCompletedStepsInReverseOnFailure(t *testing.T) {
	// Arrange
	var compensated []string
	boom := errors.New("boom")
	saga := NewSagaBuilder("provision", nil).
		WithCompensableStep("create-account",
			func(ctx context.Context, data any) (any, error) { return "account-1", nil },
			func(ctx context.Context, data any) error { compensated = append(compensated, "create-account"); return nil }).
		WithCompensableStep("create-profile",
			func(ctx context.Context, data any) (any, error) { return "profile-1", nil },
			func(ctx context.Context, data any) error { compensated = append(compensated, "create-profile"); return nil }).
		WithStep("charge-card", func(ctx context.Context, data any) (any, error) { return nil, boom }).
		Build()

	// Act
	_, err := saga.Run(context.Background(), "start")

	// Assert
	require.Error(t, err)
	assert.Equal(t, []string{"create-profile", "create-account"}, compensated)
}

func TestSagaRetriesStepUpToMaxRetries(t *testing.T) {
	// Arrange
	attempts := 0
	saga := NewSagaBuilder("flaky", nil).
		WithRetryableStep("unstable", func(ctx context.Context, data any) (any, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		}, 5, time.Millisecond).
		Build()

	// Act
	result, err := saga.Run(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}
