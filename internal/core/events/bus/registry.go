package bus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Registry holds one Channel per event type and closes every cycle at once.
type Registry struct {
	mu       sync.RWMutex
	channels map[reflect.Type]Flusher
	order    []reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[reflect.Type]Flusher)}
}

// Register returns the channel for E, creating it on first use.
func Register[E any](r *Registry) *Channel[E] {
	t := reflect.TypeFor[E]()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.channels[t]; ok {
		return existing.(*Channel[E])
	}
	ch := NewChannel[E]()
	r.channels[t] = ch
	r.order = append(r.order, t)
	return ch
}

// Lookup returns the channel for E if one was registered.
func Lookup[E any](r *Registry) (*Channel[E], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	existing, ok := r.channels[reflect.TypeFor[E]()]
	if !ok {
		return nil, false
	}
	return existing.(*Channel[E]), true
}

// FlushAll flushes every channel in registration order.
func (r *Registry) FlushAll() error {
	r.mu.RLock()
	flushers := make([]Flusher, 0, len(r.order))
	for _, t := range r.order {
		flushers = append(flushers, r.channels[t])
	}
	r.mu.RUnlock()

	var errs []error
	for _, f := range flushers {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}
