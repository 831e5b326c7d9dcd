package behavior

import (
	"iter"
	"reflect"

	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/core/sparse"
)

// Hooks run inside the mutating call: after storage changed and before the
// matching post event is published. Derived indices that must never lag
// behind the stored values are maintained here instead of through events.
type Hooks[T any] struct {
	Added   func(e entity.Entity, v T)
	Updated func(e entity.Entity, prev, next T)
	Removed func(e entity.Entity, prev T)
}

// Option configures a Registry.
type Option[T any] func(*Registry[T])

// WithFactory sets the initial-value factory used on first Set.
func WithFactory[T any](fn Factory[T]) Option[T] {
	return func(r *Registry[T]) { r.factory = fn }
}

// WithFactories resolves the factory of T from a table. An explicit
// WithFactory takes precedence regardless of option order.
func WithFactories[T any](tbl *FactoryTable) Option[T] {
	return func(r *Registry[T]) { r.factories = tbl }
}

// WithHooks installs synchronous hooks.
func WithHooks[T any](h Hooks[T]) Option[T] {
	return func(r *Registry[T]) { r.hooks = h }
}

// Store is the type-erased view of a Registry.
type Store interface {
	Tag() Tag
	Name() string
	Len() int
	Has(e entity.Entity) bool
	Remove(e entity.Entity) bool
}

var _ Store = (*Registry[struct{}])(nil)

// Registry stores at most one value of T per entity and announces every
// change on the bus. Values are plain data mutated only through Set.
//
// The registry subscribes to entity.PreEntityDeactivated at construction and
// removes the entity's value, so no value outlives its entity.
type Registry[T any] struct {
	tag       Tag
	name      string
	entities  *entity.Registry
	bus       *bus.Bus
	store     *sparse.Set[T]
	factory   Factory[T]
	factories *FactoryTable
	hooks     Hooks[T]
	sub       *bus.Subscription
}

// New creates the registry of T sized to the entity registry capacity.
func New[T any](entities *entity.Registry, b *bus.Bus, opts ...Option[T]) *Registry[T] {
	rt := reflect.TypeFor[T]()
	r := &Registry[T]{
		tag:      tagOfType(rt),
		name:     typeName(rt),
		entities: entities,
		bus:      b,
		store:    sparse.New[T](entities.Capacity()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		if f, ok := FactoryFor[T](r.factories); ok {
			r.factory = f
		}
	}
	r.sub = bus.Subscribe(b, r.onPreDeactivated)
	return r
}

func (r *Registry[T]) onPreDeactivated(ev entity.PreEntityDeactivated) {
	r.Remove(ev.Entity)
}

// Set creates or updates the value of T on e by applying mutate in place.
//
// On first set the value starts from the factory (or the zero value) and
// Added is published. Otherwise PreUpdated is published before mutate runs
// and PostUpdated after. Set panics with entity.ErrInactiveEntity when e is
// not active. A nil mutate stores the initial value unchanged.
func (r *Registry[T]) Set(e entity.Entity, mutate func(*T)) {
	r.entities.MustBeActive(e)
	i := e.Index()

	if prev, ok := r.store.Get(i); ok {
		bus.Publish(r.bus, PreUpdated[T]{Entity: e})
		if mutate != nil && !r.store.Update(i, mutate) {
			// removed by a PreUpdated handler
			return
		}
		if r.hooks.Updated != nil {
			next, _ := r.store.Get(i)
			r.hooks.Updated(e, prev, next)
		}
		bus.Publish(r.bus, PostUpdated[T]{Entity: e})
		return
	}

	var v T
	if r.factory != nil {
		v = r.factory(e)
	}
	if mutate != nil {
		mutate(&v)
	}
	r.store.Set(i, v)
	if r.hooks.Added != nil {
		r.hooks.Added(e, v)
	}
	bus.Publish(r.bus, Added[T]{Entity: e})
}

// Put stores v on e, replacing the whole value. Events are the same as Set.
func (r *Registry[T]) Put(e entity.Entity, v T) {
	r.Set(e, func(p *T) { *p = v })
}

// Remove deletes the value of T on e and reports whether one existed.
// PreRemoved is published while the value is still readable.
func (r *Registry[T]) Remove(e entity.Entity) bool {
	i := e.Index()
	if !r.store.Has(i) {
		return false
	}
	bus.Publish(r.bus, PreRemoved[T]{Entity: e})
	prev, ok := r.store.Get(i)
	if !ok {
		return false
	}
	r.store.Remove(i)
	if r.hooks.Removed != nil {
		r.hooks.Removed(e, prev)
	}
	bus.Publish(r.bus, PostRemoved[T]{Entity: e})
	return true
}

// Get returns the value of T on e.
func (r *Registry[T]) Get(e entity.Entity) (T, bool) {
	return r.store.Get(e.Index())
}

// Has reports whether e carries a value of T.
func (r *Registry[T]) Has(e entity.Entity) bool {
	return r.store.Has(e.Index())
}

// Len returns the number of entities carrying T.
func (r *Registry[T]) Len() int { return r.store.Len() }

// All yields every (entity, value) pair. Mutating the registry while
// iterating is not supported.
func (r *Registry[T]) All() iter.Seq2[entity.Entity, T] {
	return func(yield func(entity.Entity, T) bool) {
		for i, v := range r.store.All() {
			if !yield(entity.Entity(i), v) {
				return
			}
		}
	}
}

// Tag returns the behavior type tag.
func (r *Registry[T]) Tag() Tag { return r.tag }

// Name returns the package-qualified behavior type name.
func (r *Registry[T]) Name() string { return r.name }

// Close detaches the registry from entity lifecycle events.
func (r *Registry[T]) Close() {
	bus.Unsubscribe(r.sub)
}
