package models

import (
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnWith(t *testing.T, w *World, h health, tagged bool) EntityID {
	t.Helper()
	id := w.Spawn()
	require.NoError(t, Insert(w, id, h))
	if tagged {
		require.NoError(t, Insert(w, id, tag{}))
	}
	return id
}

func TestQueryFilters(t *testing.T) {
	w := NewWorld()
	a := spawnWith(t, w, 1, true)
	b := spawnWith(t, w, 2, false)
	c := spawnWith(t, w, 3, true)

	all := NewQuery[health](w)
	assert.Equal(t, 3, all.Count())

	tagged := NewQuery[health](w, With[tag]())
	assert.Equal(t, 2, tagged.Count())
	rows := tagged.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, a, rows[0].ID)
	assert.Equal(t, c, rows[1].ID)

	untagged := NewQuery[health](w, Without[tag]())
	rows = untagged.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, b, rows[0].ID)
	assert.Equal(t, health(2), rows[0].Value)
}

func TestQueryChanged(t *testing.T) {
	w := NewWorld()
	a := spawnWith(t, w, 1, false)
	b := spawnWith(t, w, 2, false)

	first := w.IncrementChangeTick()
	assert.Equal(t, 2, NewQuery[health](w).Changed(0).Count())
	assert.Equal(t, 0, NewQuery[health](w).Changed(first).Count())

	require.NoError(t, Update(w, b, func(h *health) { *h = 20 }))
	rows := NewQuery[health](w).Changed(first).Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, b, rows[0].ID)
	assert.Equal(t, health(20), rows[0].Value)

	assert.Equal(t, 0, NewQuery[health](w, With[tag]()).Changed(first).Count())
	require.NoError(t, Insert(w, a, tag{}))
	require.NoError(t, Update(w, a, func(h *health) { *h = 10 }))
	assert.Equal(t, []Row[health]{{ID: a, Value: 10}, {ID: b, Value: 20}},
		NewQuery[health](w).Changed(first).Rows())
	assert.Equal(t, 1, NewQuery[health](w, With[tag]()).Changed(first).Count())
}

func TestQueryEachMut(t *testing.T) {
	w := NewWorld()
	a := spawnWith(t, w, 1, true)
	b := spawnWith(t, w, 2, false)
	since := w.IncrementChangeTick()

	NewQuery[health](w, With[tag]()).EachMut(func(id EntityID, h *health) bool {
		*h *= 10
		return true
	})

	got, _ := Get[health](w, a)
	assert.Equal(t, health(10), got)
	got, _ = Get[health](w, b)
	assert.Equal(t, health(2), got)
	assert.True(t, ChangedSince[health](w, a, since))
	assert.False(t, ChangedSince[health](w, b, since))
}

func TestQueryParEach(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 100; i++ {
		spawnWith(t, w, health(i), i%2 == 0)
	}

	var sum atomic.Int64
	NewQuery[health](w, With[tag]()).ParEach(4, func(_ EntityID, h health) {
		sum.Add(int64(h))
	})
	// even numbers 0..98
	assert.Equal(t, int64(2450), sum.Load())
	assert.Equal(t, 50, NewQuery[health](w, With[tag]()).Iter().Count())

	var seen []EntityID
	NewQuery[health](w, Without[tag]()).Each(func(id EntityID, _ health) {
		seen = append(seen, id)
	})
	assert.Len(t, seen, 50)
	assert.True(t, slices.IsSorted(seen))
}

func TestQueryOnUnknownComponent(t *testing.T) {
	w := NewWorld()
	assert.Empty(t, NewQuery[position](w).Rows())
	assert.Equal(t, 0, NewQuery[position](w).Count())
}
