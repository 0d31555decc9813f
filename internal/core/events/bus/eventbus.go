package bus

import (
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscription implements Subscription.
type subscription struct {
	mu     sync.Mutex
	id     string
	active bool
	cancel func()
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type handlerEntry[E any] struct {
	sub     *subscription
	handler Handler[E]
}

// Channel is a thread-safe, typed, per-cycle event queue.
type Channel[E any] struct {
	name string

	mu        sync.RWMutex
	events    []E
	handlers  map[string]handlerEntry[E]
	order     []string
	metrics   Metrics
	observers map[Observer]struct{}
}

var _ Writer[struct{}] = (*Channel[struct{}])(nil)

// NewChannel creates a channel named after E.
func NewChannel[E any]() *Channel[E] {
	return &Channel[E]{
		name:      reflect.TypeFor[E]().String(),
		events:    make([]E, 0, 16),
		handlers:  make(map[string]handlerEntry[E]),
		observers: make(map[Observer]struct{}),
	}
}

func (c *Channel[E]) Name() string { return c.name }

// Send appends an event to the current cycle.
func (c *Channel[E]) Send(event E) {
	c.mu.Lock()
	c.events = append(c.events, event)
	observing := len(c.observers) > 0
	if observing {
		c.metrics.Sent++
	}
	obs := c.observerSnapshotLocked()
	c.mu.Unlock()

	for _, o := range obs {
		o.OnSend(c.name)
	}
}

// Read returns a copy of the events sent so far in the current cycle.
func (c *Channel[E]) Read() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]E, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of events buffered in the current cycle.
func (c *Channel[E]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// Subscribe registers a handler called on Flush for every event of the cycle.
func (c *Channel[E]) Subscribe(handler Handler[E]) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	s := &subscription{id: id, active: true}
	s.cancel = func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.handlers[id] = handlerEntry[E]{sub: s, handler: handler}
	c.order = append(c.order, id)
	return s
}

// Unsubscribe cancels the given Subscription. It is safe to call with nil.
func (c *Channel[E]) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

// AddObserver registers an observer to receive metrics callbacks.
func (c *Channel[E]) AddObserver(obs Observer) {
	c.mu.Lock()
	c.observers[obs] = struct{}{}
	c.mu.Unlock()
}

// RemoveObserver unregisters a previously added observer.
func (c *Channel[E]) RemoveObserver(obs Observer) {
	c.mu.Lock()
	delete(c.observers, obs)
	c.mu.Unlock()
}

// GetMetrics returns a snapshot of accumulated metrics.
func (c *Channel[E]) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.metrics
	m.SubscribersActive = uint64(len(c.handlers))
	return m
}

func (c *Channel[E]) Flush() error {
	start := time.Now()

	c.mu.Lock()
	events := c.events
	c.events = make([]E, 0, cap(events))
	entries := make([]handlerEntry[E], 0, len(c.order))
	for _, id := range c.order {
		entries = append(entries, c.handlers[id])
	}
	obs := c.observerSnapshotLocked()
	c.mu.Unlock()

	var errs []error
	for _, ev := range events {
		for _, e := range entries {
			if !e.sub.IsActive() {
				continue
			}
			if err := e.handler(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	all := errors.Join(errs...)

	if len(obs) > 0 {
		dur := time.Since(start).Microseconds()
		for _, o := range obs {
			o.OnFlush(c.name, len(events), len(entries), all, dur)
		}
		c.mu.Lock()
		c.metrics.Flushed++
		c.metrics.Delivered += uint64(len(events) * len(entries))
		if all != nil {
			c.metrics.Errors++
		}
		c.mu.Unlock()
	}
	return all
}

func (c *Channel[E]) observerSnapshotLocked() []Observer {
	if len(c.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(c.observers))
	for o := range c.observers {
		out = append(out, o)
	}
	return out
}
