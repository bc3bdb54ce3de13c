package util

import (
	"testing"

	"fluxstate/action"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindActionCreatorsDispatchesBuiltAction(t *testing.T) {
	// Arrange
	var dispatched []action.Action
	dispatch := func(a action.Action) (action.Action, error) {
		dispatched = append(dispatched, a)
		return a, nil
	}
	creators := map[string]action.Creator{
		"addTodo": action.New("todos/add"),
	}

	// Act
	bound := BindActionCreators(creators, dispatch)
	result, err := bound["addTodo"]("buy milk")

	// Assert
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "todos/add", dispatched[0].Type)
	assert.Equal(t, "buy milk", dispatched[0].Payload)
	assert.Equal(t, "todos/add", result.Type)
}

func TestBindActionCreatorsKeepsCreatorsIndependent(t *testing.T) {
	// Arrange
	dispatch := func(a action.Action) (action.Action, error) { return a, nil }
	creators := map[string]action.Creator{
		"add":    action.New("todos/add"),
		"remove": action.New("todos/remove"),
	}

	// Act
	bound := BindActionCreators(creators, dispatch)
	addResult, _ := bound["add"](1)
	removeResult, _ := bound["remove"](2)

	// Assert
	assert.Equal(t, "todos/add", addResult.Type)
	assert.Equal(t, "todos/remove", removeResult.Type)
}
