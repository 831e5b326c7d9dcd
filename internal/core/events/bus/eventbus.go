package bus

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
)

type topicKey = reflect.Type

// dispatcher is the type-erased view of a topic used for bookkeeping.
type dispatcher interface {
	eventType() string
	subscribers() int
}

// Subscription represents a registered handler bound to an event type.
// Use Cancel or Unsubscribe to stop receiving events.
type Subscription struct {
	id        string
	eventType string
	active    bool
	cancel    func()
}

// ID is a unique identifier for this subscription.
func (s *Subscription) ID() string { return s.id }

// EventType returns the name of the event type this subscription listens to.
func (s *Subscription) EventType() string { return s.eventType }

// IsActive reports whether this subscription is still registered.
func (s *Subscription) IsActive() bool { return s.active }

// Cancel de-registers the handler from the bus. Multiple calls are safe.
func (s *Subscription) Cancel() {
	if !s.active {
		return
	}
	s.active = false
	if s.cancel != nil {
		s.cancel()
	}
}

type registration[T any] struct {
	sub     *Subscription
	handler Handler[T]
}

// topic holds the ordered handler list of one event type.
type topic[T any] struct {
	name        string
	handlers    []registration[T]
	dispatching bool
	stale       bool
}

func (t *topic[T]) eventType() string { return t.name }
func (t *topic[T]) subscribers() int  { return len(t.handlers) }

func (t *topic[T]) compact() {
	t.handlers = slices.DeleteFunc(t.handlers, func(r registration[T]) bool { return !r.sub.active })
	t.stale = false
}

func (t *topic[T]) finish() {
	t.dispatching = false
	if t.stale {
		t.compact()
	}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		topics: make(map[topicKey]dispatcher),
	}
}

// Subscribe registers handler for events of type T and returns a Subscription
// handle that can be used to cancel later.
func Subscribe[T any](b *Bus, handler Handler[T]) *Subscription {
	if handler == nil {
		panic("bus: nil handler")
	}
	t := topicOf[T](b, true)
	s := &Subscription{id: uuid.NewString(), eventType: t.name, active: true}
	s.cancel = func() {
		if t.dispatching {
			t.stale = true
			return
		}
		t.compact()
	}
	t.handlers = append(t.handlers, registration[T]{sub: s, handler: handler})
	return s
}

// Unsubscribe cancels the given Subscription. It is safe to call with nil.
func Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()
}

// Publish delivers event synchronously to every active handler of type T in
// registration order.
func Publish[T any](b *Bus, event T) {
	t := topicOf[T](b, false)
	if t == nil {
		if len(b.observers) > 0 {
			b.metrics.Dropped++
		}
		return
	}
	if t.dispatching {
		panic(fmt.Errorf("%w: %s", ErrReentrantPublish, t.name))
	}

	var start time.Time
	observed := len(b.observers) > 0
	if observed {
		start = time.Now()
		for _, obs := range b.observers {
			obs.OnPublish(t.name, event)
		}
	}

	t.dispatching = true
	defer t.finish()

	// handlers appended during the dispatch are not visited
	n := len(t.handlers)
	for i := 0; i < n; i++ {
		r := t.handlers[i]
		if !r.sub.active {
			continue
		}
		r.handler(event)
	}

	if observed {
		dur := time.Since(start)
		for _, obs := range b.observers {
			obs.OnDelivered(t.name, n, dur)
		}
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(n)
	}
}

// HandlerCount returns the number of active handlers registered for T.
func HandlerCount[T any](b *Bus) int {
	t := topicOf[T](b, false)
	if t == nil {
		return 0
	}
	n := 0
	for _, r := range t.handlers {
		if r.sub.active {
			n++
		}
	}
	return n
}

// AddObserver registers an observer to receive delivery callbacks.
func (b *Bus) AddObserver(obs Observer) {
	b.observers = append(b.observers, obs)
}

// RemoveObserver unregisters a previously added observer.
func (b *Bus) RemoveObserver(obs Observer) {
	b.observers = slices.DeleteFunc(b.observers, func(o Observer) bool { return o == obs })
}

// GetMetrics returns a snapshot of accumulated metrics. Metrics are only
// collected when at least one observer is registered.
func (b *Bus) GetMetrics() Metrics {
	m := b.metrics
	m.EventTypes = uint64(len(b.topics))
	var subs uint64
	for _, d := range b.topics {
		subs += uint64(d.subscribers())
	}
	m.SubscribersActive = subs
	return m
}

// GetTopics returns a snapshot list of known event types, sorted by name.
func (b *Bus) GetTopics() []TopicInfo {
	out := make([]TopicInfo, 0, len(b.topics))
	for _, d := range b.topics {
		out = append(out, TopicInfo{EventType: d.eventType(), Subs: d.subscribers()})
	}
	slices.SortFunc(out, func(a, b TopicInfo) int {
		switch {
		case a.EventType < b.EventType:
			return -1
		case a.EventType > b.EventType:
			return 1
		}
		return 0
	})
	return out
}

func topicOf[T any](b *Bus, create bool) *topic[T] {
	key := reflect.TypeFor[T]()
	if d, ok := b.topics[key]; ok {
		return d.(*topic[T])
	}
	if !create {
		return nil
	}
	t := &topic[T]{name: key.String(), handlers: make([]registration[T], 0, 4)}
	b.topics[key] = t
	return t
}
