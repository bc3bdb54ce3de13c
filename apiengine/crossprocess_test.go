package apiengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTagInvalidationRoundTripsReducerPathAndTags(t *testing.T) {
	// Arrange
	evt := tagInvalidationEvent{ReducerPath: "api", Tags: []Tag{{Type: "Thing", ID: "1"}}}
	detail, err := json.Marshal(evt)
	require.NoError(t, err)

	// Act
	reducerPath, tags, err := DecodeTagInvalidation(detail)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "api", reducerPath)
	assert.Equal(t, []Tag{{Type: "Thing", ID: "1"}}, tags)
}

func TestDecodeTagInvalidationRejectsMalformedDetail(t *testing.T) {
	// Arrange / Act
	_, _, err := DecodeTagInvalidation([]byte("not json"))

	// Assert
	assert.Error(t, err)
}
