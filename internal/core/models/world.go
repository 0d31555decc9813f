package models

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// World is the component store. It owns the entity pool, one typed store per
// component type and the change tick used by change-detection queries.
//
// Reads and writes of individual components are safe from any goroutine.
// Structural changes requested while iterating should go through Commands
// and be applied with Apply once iteration is over.
type World struct {
	mu     sync.RWMutex
	pool   *EntityPool
	stores map[reflect.Type]anyStore
	tick   atomic.Uint64
}

func NewWorld() *World {
	w := &World{
		pool:   NewEntityPool(),
		stores: make(map[reflect.Type]anyStore, 16),
	}
	w.tick.Store(1)
	return w
}

// ChangeTick returns the tick stamped on components mutated right now.
func (w *World) ChangeTick() Tick {
	return Tick(w.tick.Load())
}

// IncrementChangeTick advances the change tick and returns the previous
// value. The scheduler calls it once per system run and uses the returned
// tick as that run's identity.
func (w *World) IncrementChangeTick() Tick {
	return Tick(w.tick.Add(1) - 1)
}

// Spawn allocates a new entity with no components.
func (w *World) Spawn() EntityID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pool.Create()
}

// Despawn removes every component of id and releases it.
func (w *World) Despawn(id EntityID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pool.Alive(id) {
		return fmt.Errorf("despawn %s: %w", id, ErrEntityNotFound)
	}
	for _, s := range w.stores {
		s.Remove(id)
	}
	w.pool.Destroy(id)
	return nil
}

// Alive reports whether id refers to a live entity.
func (w *World) Alive(id EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool.Alive(id)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool.Len()
}

// Components lists the component type names attached to id.
func (w *World) Components(id EntityID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var names []string
	for _, s := range w.stores {
		if s.Has(id) {
			names = append(names, typeName(s.Type()))
		}
	}
	return names
}

// Stores are keyed by reflect.Type, so distinct types that share a qualified
// name (e.g. function-local types) never share a store.
func lookupStore[T any](w *World) *store[T] {
	w.mu.RLock()
	s, ok := w.stores[reflect.TypeFor[T]()]
	w.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.(*store[T])
}

func storeFor[T any](w *World) *store[T] {
	if s := lookupStore[T](w); s != nil {
		return s
	}
	typ := reflect.TypeFor[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.stores[typ]; ok {
		return s.(*store[T])
	}
	s := newStore[T]()
	w.stores[typ] = s
	return s
}

// Insert attaches value to id, replacing any existing T.
func Insert[T any](w *World, id EntityID, value T) error {
	s := storeFor[T](w)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.pool.Alive(id) {
		return fmt.Errorf("insert %s on %s: %w", TypeName[T](), id, ErrEntityNotFound)
	}
	s.set(id, value, w.ChangeTick())
	return nil
}

// Get returns a copy of the T attached to id.
func Get[T any](w *World, id EntityID) (T, bool) {
	s := lookupStore[T](w)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.get(id)
}

// Has reports whether id carries a T.
func Has[T any](w *World, id EntityID) bool {
	s := lookupStore[T](w)
	return s != nil && s.Has(id)
}

// Update mutates the T attached to id in place and marks it changed.
func Update[T any](w *World, id EntityID, fn func(*T)) error {
	s := lookupStore[T](w)
	if s == nil || !s.update(id, w.ChangeTick(), fn) {
		return fmt.Errorf("update %s on %s: %w", TypeName[T](), id, ErrComponentNotFound)
	}
	return nil
}

// Remove detaches T from id. It reports whether a component was removed.
func Remove[T any](w *World, id EntityID) bool {
	s := lookupStore[T](w)
	return s != nil && s.Remove(id)
}

// Count returns the number of entities carrying a T.
func Count[T any](w *World) int {
	s := lookupStore[T](w)
	if s == nil {
		return 0
	}
	return s.Len()
}

// ChangedSince reports whether the T on id was added or modified after since.
func ChangedSince[T any](w *World, id EntityID, since Tick) bool {
	s := lookupStore[T](w)
	if s == nil {
		return false
	}
	changed, ok := s.changedTick(id)
	return ok && changed > since
}
