package models

import (
	"cmp"
	"slices"

	"github.com/zeusync/gamestate/pkg/concurrent"
	"github.com/zeusync/gamestate/pkg/sequence"
)

// Filter narrows a query by something other than the queried component.
type Filter func(w *World, id EntityID) bool

// With keeps entities that also carry a U.
func With[U any]() Filter {
	return func(w *World, id EntityID) bool { return Has[U](w, id) }
}

// Without keeps entities that do not carry a U.
func Without[U any]() Filter {
	return func(w *World, id EntityID) bool { return !Has[U](w, id) }
}

// Row is one query result: an entity and a copy of its T.
type Row[T any] struct {
	ID    EntityID
	Value T
}

// Query selects the entities carrying a T, optionally narrowed by filters
// and by change detection. A Query is a value description; every call reads
// the store afresh.
type Query[T any] struct {
	world   *World
	filters []Filter
	since   Tick
	changed bool
}

func NewQuery[T any](w *World, filters ...Filter) *Query[T] {
	return &Query[T]{world: w, filters: filters}
}

// Changed restricts the query to components added or modified after since.
func (q *Query[T]) Changed(since Tick) *Query[T] {
	c := *q
	c.since, c.changed = since, true
	return &c
}

// snapshot copies the matching cells under the store read lock, ordered by
// id. Filters are not applied here: they read other stores and must run
// without this lock held.
func (q *Query[T]) snapshot() []Row[T] {
	s := lookupStore[T](q.world)
	if s == nil {
		return nil
	}

	s.mu.RLock()
	rows := make([]Row[T], 0, len(s.data))
	for id, c := range s.data {
		if q.changed && c.changed <= q.since {
			continue
		}
		rows = append(rows, Row[T]{ID: id, Value: c.value})
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b Row[T]) int { return cmp.Compare(a.ID, b.ID) })
	return rows
}

func (q *Query[T]) match(r Row[T]) bool {
	for _, f := range q.filters {
		if !f(q.world, r.ID) {
			return false
		}
	}
	return true
}

// Iter snapshots the store and returns the matching rows in id order. Filters
// are evaluated lazily as the iterator is consumed. The values are copies, so
// the iterator may feed concurrent readers.
func (q *Query[T]) Iter() *sequence.Iterator[Row[T]] {
	it := sequence.From(q.snapshot())
	if len(q.filters) > 0 {
		it = it.Filter(q.match)
	}
	return it
}

// Rows collects Iter.
func (q *Query[T]) Rows() []Row[T] {
	return q.Iter().Collect()
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	if len(q.filters) == 0 && !q.changed {
		return Count[T](q.world)
	}
	return q.Iter().Count()
}

// Each calls fn for every matching entity in id order.
func (q *Query[T]) Each(fn func(id EntityID, value T)) {
	for r := range q.Iter().Seq() {
		fn(r.ID, r.Value)
	}
}

// ParEach calls fn for every matching entity from up to workers goroutines.
// fn sees copies and must not change the world structurally; use Commands.
func (q *Query[T]) ParEach(workers int, fn func(id EntityID, value T)) {
	concurrent.ForEach(q.Iter(), workers, func(r Row[T]) {
		fn(r.ID, r.Value)
	})
}

// EachMut calls fn with a pointer to each matching component. When fn
// returns true the component is marked changed. Entities removed between the
// snapshot and the write are skipped. fn runs under the T store's write lock
// and must not read or write T through the World.
func (q *Query[T]) EachMut(fn func(id EntityID, value *T) bool) {
	rows := q.Rows()
	if len(rows) == 0 {
		return
	}
	s := lookupStore[T](q.world)
	tick := q.world.ChangeTick()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		c, ok := s.data[r.ID]
		if !ok {
			continue
		}
		if fn(r.ID, &c.value) {
			c.changed = tick
		}
	}
}
