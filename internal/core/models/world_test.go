package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }

type health int

type tag struct{}

func TestSpawnInsertGet(t *testing.T) {
	w := NewWorld()
	id := w.Spawn()
	assert.False(t, id.IsZero())
	assert.True(t, w.Alive(id))

	require.NoError(t, Insert(w, id, position{X: 1, Y: 2}))
	got, ok := Get[position](w, id)
	require.True(t, ok)
	assert.Equal(t, position{X: 1, Y: 2}, got)
	assert.True(t, Has[position](w, id))
	assert.False(t, Has[health](w, id))
	assert.Equal(t, 1, Count[position](w))
	assert.Equal(t, 0, Count[health](w))
}

func TestDespawnInvalidatesStaleIDs(t *testing.T) {
	w := NewWorld()
	id := w.Spawn()
	require.NoError(t, Insert(w, id, health(10)))
	require.NoError(t, w.Despawn(id))

	assert.False(t, w.Alive(id))
	assert.Equal(t, 0, Count[health](w))
	assert.ErrorIs(t, w.Despawn(id), ErrEntityNotFound)
	assert.ErrorIs(t, Insert(w, id, health(1)), ErrEntityNotFound)

	reused := w.Spawn()
	assert.Equal(t, id.Index(), reused.Index())
	assert.NotEqual(t, id, reused)
	assert.False(t, w.Alive(id))
	assert.True(t, w.Alive(reused))
	assert.Equal(t, 1, w.Len())
}

func TestUpdateMarksChanged(t *testing.T) {
	w := NewWorld()
	id := w.Spawn()
	require.NoError(t, Insert(w, id, health(10)))

	since := w.IncrementChangeTick()
	assert.False(t, ChangedSince[health](w, id, since))

	require.NoError(t, Update(w, id, func(h *health) { *h -= 3 }))
	assert.True(t, ChangedSince[health](w, id, since))

	got, _ := Get[health](w, id)
	assert.Equal(t, health(7), got)

	assert.ErrorIs(t, Update(w, id, func(p *position) {}), ErrComponentNotFound)
}

func TestComponentIDsAreDistinct(t *testing.T) {
	assert.NotEqual(t, ComponentIDOf[position](), ComponentIDOf[health]())
	assert.Equal(t, ComponentIDOf[tag](), ComponentIDOf[tag]())
	assert.Equal(t, "github.com/zeusync/gamestate/internal/core/models.health", TypeName[health]())
}

type localOps struct {
	insert func(w *World, id EntityID) error
	count  func(w *World) int
	has    func(w *World, id EntityID) bool
}

func firstLocal() localOps {
	type local struct{}
	return localOps{
		insert: func(w *World, id EntityID) error { return Insert(w, id, local{}) },
		count:  func(w *World) int { return Count[local](w) },
		has:    func(w *World, id EntityID) bool { return Has[local](w, id) },
	}
}

func secondLocal() localOps {
	type local struct{ X int }
	return localOps{
		insert: func(w *World, id EntityID) error { return Insert(w, id, local{X: 1}) },
		count:  func(w *World) int { return Count[local](w) },
		has:    func(w *World, id EntityID) bool { return Has[local](w, id) },
	}
}

func TestSameNamedLocalTypesGetSeparateStores(t *testing.T) {
	w := NewWorld()
	a, b := firstLocal(), secondLocal()
	id := w.Spawn()
	other := w.Spawn()

	require.NotPanics(t, func() {
		require.NoError(t, a.insert(w, id))
		require.NoError(t, b.insert(w, id))
		require.NoError(t, b.insert(w, other))
	})

	assert.Equal(t, 1, a.count(w))
	assert.Equal(t, 2, b.count(w))
	assert.False(t, a.has(w, other))
	assert.True(t, b.has(w, other))
	assert.Len(t, w.Components(id), 2)
}

func TestComponentsListing(t *testing.T) {
	w := NewWorld()
	id := w.Spawn()
	require.NoError(t, Insert(w, id, tag{}))
	require.NoError(t, Insert(w, id, health(1)))

	assert.ElementsMatch(t, []string{TypeName[tag](), TypeName[health]()}, w.Components(id))
}
