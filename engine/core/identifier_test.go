package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTableAcquireRelease(t *testing.T) {
	table := NewHandleTable[string](4)

	a := table.Acquire("a")
	b := table.Acquire("b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, table.Len())

	v, ok := table.Get(a)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	require.NoError(t, table.Release(a))
	assert.False(t, table.Valid(a))
	assert.ErrorIs(t, table.Release(a), ErrStaleHandle)
	assert.Equal(t, 1, table.Len())
}

func TestHandleTableReusesSlotWithNewGeneration(t *testing.T) {
	table := NewHandleTable[int](1)

	first := table.Acquire(1)
	require.NoError(t, table.Release(first))
	second := table.Acquire(2)

	assert.Equal(t, first.Index, second.Index)
	assert.NotEqual(t, first.Generation, second.Generation)

	_, ok := table.Get(first)
	assert.False(t, ok, "old handle must not resolve to the new owner")
	v, ok := table.Get(second)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestHandleTableRejectsInvalidHandles(t *testing.T) {
	table := NewHandleTable[int](0)
	assert.False(t, table.Valid(InvalidHandle))
	assert.ErrorIs(t, table.Release(Handle{Index: 10, Generation: 1}), ErrStaleHandle)
}

func TestHandleTableEach(t *testing.T) {
	table := NewHandleTable[string](0)
	table.Acquire("x")
	h := table.Acquire("y")
	table.Acquire("z")
	require.NoError(t, table.Release(h))

	var seen []string
	table.Each(func(_ Handle, s string) { seen = append(seen, s) })
	assert.Equal(t, []string{"x", "z"}, seen)
}
