package action

import (
	"testing"

	"fluxstate/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsEmptyType(t *testing.T) {
	// Act
	err := Validate(Action{})

	// Assert
	assert.True(t, apperrors.IsInvalidAction(err))
}

func TestValidateAcceptsNonEmptyType(t *testing.T) {
	// Act
	err := Validate(Action{Type: "todos/add"})

	// Assert
	assert.NoError(t, err)
}

func TestNewCreatorBuildsAction(t *testing.T) {
	// Arrange
	create := New("todos/add")

	// Act
	a := create("buy milk")

	// Assert
	assert.Equal(t, "todos/add", a.Type)
	assert.Equal(t, "buy milk", a.Payload)
}
