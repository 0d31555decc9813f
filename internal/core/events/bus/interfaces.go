package bus

// Flusher is implemented by every Channel so a Registry can close a cycle
// without knowing the event types.
//
// Key characteristics of a Channel:
// - Typed: one Channel carries one event type.
// - Ordered per producer: events sent from one goroutine keep their order.
// - Multi-producer: Send is safe from any number of goroutines.
// - Per-cycle: Flush delivers the cycle's events to subscribers and then
//   discards them. Events nobody read are dropped at the cycle boundary.
type Flusher interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	// Flush delivers the buffered events to every active subscription in send
	// order, then clears the buffer. Handler errors are joined and returned.
	Flush() error
}

// Writer is the producer side of a Channel.
type Writer[E any] interface {
	Send(event E)
}

// Handler is a user callback invoked per delivered event. If it returns an
// error, Flush aggregates and returns it.
type Handler[E any] func(event E) error

// Subscription represents a registered handler.
// Use Cancel or Channel.Unsubscribe to stop receiving events.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about sends and flushes. Implementations can export
// metrics or logs. Observers should return quickly.
type Observer interface {
	OnSend(channel string)
	OnFlush(channel string, events, handlers int, err error, durationMicros int64)
}

// Metrics represents a minimal set of counters; it is updated only when at
// least one observer is registered.
type Metrics struct {
	Sent              uint64
	Flushed           uint64
	Delivered         uint64
	Errors            uint64
	SubscribersActive uint64
}
