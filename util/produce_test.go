package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type todoState struct {
	Items []string
	Count int
}

func TestProduceLeavesBaseUntouched(t *testing.T) {
	// Arrange
	base := todoState{Items: []string{"buy milk"}, Count: 1}

	// Act
	next := Produce(base, func(draft *todoState) {
		draft.Items = append(draft.Items, "walk dog")
		draft.Count = 2
	})

	// Assert
	assert.Equal(t, []string{"buy milk"}, base.Items)
	assert.Equal(t, 1, base.Count)
	assert.Equal(t, []string{"buy milk", "walk dog"}, next.Items)
	assert.Equal(t, 2, next.Count)
}

type cloneableState struct {
	cloneCalls *int
	Value      int
}

func (s cloneableState) Clone() cloneableState {
	*s.cloneCalls++
	return cloneableState{cloneCalls: s.cloneCalls, Value: s.Value}
}

func TestProducePrefersClonerOverJSON(t *testing.T) {
	// Arrange
	calls := 0
	base := cloneableState{cloneCalls: &calls, Value: 1}

	// Act
	next := Produce(base, func(draft *cloneableState) {
		draft.Value = 2
	})

	// Assert
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, base.Value)
	assert.Equal(t, 2, next.Value)
}

func TestProducePanicsOnNonCloneableNonJSONable(t *testing.T) {
	// Arrange
	type unserializable struct {
		Ch chan int
	}
	base := unserializable{Ch: make(chan int)}

	// Act & Assert
	assert.Panics(t, func() {
		Produce(base, func(draft *unserializable) {})
	})
}

func TestFreezeReturnsIndependentCopy(t *testing.T) {
	// Arrange
	base := todoState{Items: []string{"buy milk"}, Count: 1}

	// Act
	frozen := Freeze(base)
	frozen.Items[0] = "mutated"

	// Assert
	assert.Equal(t, "buy milk", base.Items[0])
}
