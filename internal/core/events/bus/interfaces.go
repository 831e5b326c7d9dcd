package bus

import (
	"errors"
	"time"
)

// ErrReentrantPublish is raised when an event type is published while a
// dispatch of that same type is still running on the stack.
var ErrReentrantPublish = errors.New("bus: re-entrant publish of event type")

// Bus is a per-world, in-process event dispatcher.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by the Go type of the event.
// - Synchronous delivery: Publish calls handlers on the caller goroutine and
// returns only after the last one completes. There is no queue.
// - Registration order: handlers of one type run in the order they subscribed.
// - Optional observability: metrics are produced only when observers are registered.
//
// Notes:
// - Publishing type T from inside a handler of T panics with ErrReentrantPublish.
// Publishing other types from a handler is allowed.
// - A handler subscribed during a dispatch does not receive the in-flight event.
// A handler cancelled during a dispatch is skipped from that point on.
// - A Bus is not safe for concurrent use; each world drives its own bus from one goroutine.
type Bus struct {
	topics    map[topicKey]dispatcher
	observers []Observer
	metrics   Metrics
}

// Handler is the callback invoked for each published event of type T.
type Handler[T any] func(event T)

// Observer is notified about deliveries. Implementations can export metrics,
// tracing, or logs. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event any)
	OnDelivered(eventType string, handlers int, duration time.Duration)
}

// Metrics represents a minimal set of counters; it is updated only when
// at least one observer is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Dropped           uint64
	SubscribersActive uint64
	EventTypes        uint64
}

// TopicInfo provides a minimal snapshot about one event type.
type TopicInfo struct {
	EventType string
	Subs      int
}
