package models

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ComponentID is a stable id for a component type, derived from its fully
// qualified Go type name. It is meant for display and wire formats; two
// types with the same qualified name share an id.
type ComponentID uint32

// Tick is a value of the world change counter.
type Tick uint64

// TypeName returns the fully qualified name of T, e.g.
// "github.com/zeusync/gamestate/internal/debug.DebugMarker".
func TypeName[T any]() string {
	return typeName(reflect.TypeFor[T]())
}

// ComponentIDOf returns the ComponentID of T.
func ComponentIDOf[T any]() ComponentID {
	return componentID(reflect.TypeFor[T]())
}

func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func componentID(t reflect.Type) ComponentID {
	return ComponentID(uint32(xxhash.Sum64String(typeName(t))))
}

// anyStore provides type-erased operations so World can manage all stores
// uniformly, e.g. on despawn.
type anyStore interface {
	Type() reflect.Type
	Remove(id EntityID) bool
	Has(id EntityID) bool
	Len() int
}

type cell[T any] struct {
	value   T
	changed Tick
}

// store is a typed map store for one component type.
type store[T any] struct {
	typ  reflect.Type
	mu   sync.RWMutex
	data map[EntityID]*cell[T]
}

func newStore[T any]() *store[T] {
	return &store[T]{
		typ:  reflect.TypeFor[T](),
		data: make(map[EntityID]*cell[T], 256),
	}
}

func (s *store[T]) Type() reflect.Type { return s.typ }

func (s *store[T]) set(id EntityID, value T, tick Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.data[id]; ok {
		c.value = value
		c.changed = tick
		return
	}
	s.data[id] = &cell[T]{value: value, changed: tick}
}

func (s *store[T]) get(id EntityID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (s *store[T]) update(id EntityID, tick Tick, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[id]
	if !ok {
		return false
	}
	fn(&c.value)
	c.changed = tick
	return true
}

func (s *store[T]) changedTick(id EntityID) (Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		return 0, false
	}
	return c.changed, true
}

func (s *store[T]) Remove(id EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

func (s *store[T]) Has(id EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

func (s *store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
