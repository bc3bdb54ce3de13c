package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBinderRoundTripsAValue(t *testing.T) {
	// Arrange
	b := NewMemoryBinder()
	ctx := context.Background()

	// Act
	require.NoError(t, b.Set(ctx, "k", []byte("v1")))
	got, err := b.Get(ctx, "k")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestMemoryBinderGetOnMissingKeyReturnsNilNil(t *testing.T) {
	// Arrange
	b := NewMemoryBinder()

	// Act
	got, err := b.Get(context.Background(), "absent")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryBinderRemoveDropsTheValue(t *testing.T) {
	// Arrange
	b := NewMemoryBinder()
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, "k", []byte("v")))

	// Act
	require.NoError(t, b.Remove(ctx, "k"))
	got, err := b.Get(ctx, "k")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryBinderGetReturnsACopyNotAnAliasOfStoredBytes(t *testing.T) {
	// Arrange
	b := NewMemoryBinder()
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, "k", []byte("original")))

	// Act
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'
	got2, _ := b.Get(ctx, "k")

	// Assert
	assert.Equal(t, []byte("original"), got2)
}
