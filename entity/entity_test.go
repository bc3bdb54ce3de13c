package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type widget struct {
	ID       string
	Name     string
	Priority int
}

func byPriority(a, b widget) bool { return a.Priority < b.Priority }

func widgetID(w widget) string { return w.ID }

func TestAddManyKeepsInsertionOrderWithoutComparer(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()

	// Act
	state = a.AddMany(state, []widget{{ID: "b"}, {ID: "a"}, {ID: "c"}})

	// Assert
	assert.Equal(t, []string{"b", "a", "c"}, a.SelectIDs(state))
	assert.Equal(t, 3, a.SelectTotal(state))
}

func TestAddOneLeavesExistingEntityUntouched(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddOne(state, widget{ID: "a", Name: "first"})

	// Act
	state = a.AddOne(state, widget{ID: "a", Name: "second"})

	// Assert
	got, ok := a.SelectByID(state, "a")
	assert.True(t, ok)
	assert.Equal(t, "first", got.Name)
}

func TestSortComparerOrdersByPriorityWithInsertionOrderTiebreak(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, byPriority)
	state := a.InitialState()

	// Act
	state = a.AddMany(state, []widget{
		{ID: "low-first", Priority: 1},
		{ID: "high", Priority: 5},
		{ID: "low-second", Priority: 1},
	})

	// Assert: both priority-1 widgets tie, so insertion order decides between them.
	assert.Equal(t, []string{"low-first", "low-second", "high"}, a.SelectIDs(state))
}

func TestSetManyReplacesExistingAndAppendsNewThenResorts(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, byPriority)
	state := a.InitialState()
	state = a.AddOne(state, widget{ID: "a", Priority: 10})

	// Act
	state = a.SetMany(state, []widget{{ID: "a", Priority: 1}, {ID: "b", Priority: 5}})

	// Assert
	assert.Equal(t, []string{"a", "b"}, a.SelectIDs(state))
	got, _ := a.SelectByID(state, "a")
	assert.Equal(t, 1, got.Priority)
}

func TestUpsertManyMergesOntoExistingAndInsertsNew(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddOne(state, widget{ID: "a", Name: "original", Priority: 3})

	// Act
	state = a.UpsertMany(state, []widget{{ID: "a", Name: "renamed"}, {ID: "new", Name: "fresh"}})

	// Assert
	existing, _ := a.SelectByID(state, "a")
	assert.Equal(t, "renamed", existing.Name)
	assert.Equal(t, 3, existing.Priority, "zero-value fields in the incoming entity must not clobber the existing one")
	inserted, ok := a.SelectByID(state, "new")
	assert.True(t, ok)
	assert.Equal(t, "fresh", inserted.Name)
}

func TestUpdateOneShallowMergesChangesOntoExistingEntity(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddOne(state, widget{ID: "a", Name: "original", Priority: 3})

	// Act
	state = a.UpdateOne(state, "a", map[string]any{"Name": "updated"})

	// Assert
	got, _ := a.SelectByID(state, "a")
	assert.Equal(t, "updated", got.Name)
	assert.Equal(t, 3, got.Priority, "fields absent from changes must be left untouched")
}

func TestUpdateOneOnMissingIDIsNoOp(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddOne(state, widget{ID: "a", Name: "original"})

	// Act
	result := a.UpdateOne(state, "missing", map[string]any{"Name": "updated"})

	// Assert
	assert.Equal(t, state, result)
}

func TestRemoveManyDropsIDsFromBothIndexAndTable(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddMany(state, []widget{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	// Act
	state = a.RemoveMany(state, []string{"a", "c"})

	// Assert
	assert.Equal(t, []string{"b"}, a.SelectIDs(state))
	assert.Equal(t, 1, a.SelectTotal(state))
	_, ok := a.SelectByID(state, "a")
	assert.False(t, ok)
}

func TestRemoveAllEmptiesTheCollection(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	state := a.InitialState()
	state = a.AddMany(state, []widget{{ID: "a"}, {ID: "b"}})

	// Act
	state = a.RemoveAll(state)

	// Assert
	assert.Empty(t, a.SelectIDs(state))
	assert.Equal(t, 0, a.SelectTotal(state))
}

func TestSelectAllReturnsEntitiesInCanonicalOrder(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, byPriority)
	state := a.InitialState()
	state = a.AddMany(state, []widget{{ID: "b", Priority: 2}, {ID: "a", Priority: 1}})

	// Act
	all := a.SelectAll(state)

	// Assert
	assert.Equal(t, []string{"a", "b"}, []string{all[0].ID, all[1].ID})
}

func TestMutationsDoNotAliasThePriorCollection(t *testing.T) {
	// Arrange
	a := NewAdapter[widget](widgetID, nil)
	original := a.InitialState()
	original = a.AddOne(original, widget{ID: "a", Name: "original"})

	// Act
	a.UpdateOne(original, "a", map[string]any{"Name": "mutated"})

	// Assert: the collection passed in must be unaffected by the returned copy's mutation.
	got, _ := a.SelectByID(original, "a")
	assert.Equal(t, "original", got.Name)
}
