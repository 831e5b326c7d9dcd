package hierarchy

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ErikKalkoken/go-set"
	"github.com/zeusync/scenecore/internal/core/behavior"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/core/sparse"
)

var (
	// ErrSelfParent is raised when an entity is made its own parent.
	ErrSelfParent = errors.New("hierarchy: entity cannot parent itself")
	// ErrCycle is raised when a new edge would make an entity its own ancestor.
	ErrCycle = errors.New("hierarchy: edge would create a cycle")
)

// Parent is the edge behavior stored on a child entity.
type Parent struct {
	Entity entity.Entity
}

const none = -1

// Registry owns the Parent behavior and the derived parent -> children index.
//
// The edge stored on the child is authoritative. The children index (intrusive
// sibling lists) and the roots set are updated inside the same call that
// mutates the edge, before any post event is published, so subscribers always
// observe a consistent hierarchy.
//
// A root is an entity with at least one child and no parent.
type Registry struct {
	entities    *entity.Registry
	edges       *behavior.Registry[Parent]
	firstChild  []int32
	nextSibling []int32
	prevSibling []int32
	childCount  []int32
	roots       *sparse.Set[struct{}]
	sub         *bus.Subscription
}

// New creates the hierarchy registry for a world.
func New(entities *entity.Registry, b *bus.Bus) *Registry {
	n := entities.Capacity()
	r := &Registry{
		entities:    entities,
		firstChild:  make([]int32, n),
		nextSibling: make([]int32, n),
		prevSibling: make([]int32, n),
		childCount:  make([]int32, n),
		roots:       sparse.New[struct{}](n),
	}
	for i := 0; i < n; i++ {
		r.firstChild[i] = none
		r.nextSibling[i] = none
		r.prevSibling[i] = none
	}
	r.edges = behavior.New[Parent](entities, b, behavior.WithHooks(behavior.Hooks[Parent]{
		Added: func(child entity.Entity, v Parent) {
			r.link(child, v.Entity)
		},
		Updated: func(child entity.Entity, prev, next Parent) {
			if prev.Entity == next.Entity {
				return
			}
			r.unlink(child, prev.Entity, false)
			r.link(child, next.Entity)
		},
		Removed: func(child entity.Entity, prev Parent) {
			r.unlink(child, prev.Entity, true)
		},
	}))
	// registered after the edge registry, so a deactivating entity first
	// loses its own edge and then orphans its children
	r.sub = bus.Subscribe(b, r.onPreDeactivated)
	return r
}

// SetParent makes parent the parent of child, replacing any previous edge.
// Both entities must be active. It panics with ErrSelfParent or ErrCycle
// when the edge would break the forest shape.
func (r *Registry) SetParent(child, parent entity.Entity) {
	r.entities.MustBeActive(child)
	r.entities.MustBeActive(parent)
	if child == parent {
		panic(fmt.Errorf("%w: %s", ErrSelfParent, child))
	}
	for a := parent; ; {
		if a == child {
			panic(fmt.Errorf("%w: %s is an ancestor of %s", ErrCycle, child, parent))
		}
		p, ok := r.edges.Get(a)
		if !ok {
			break
		}
		a = p.Entity
	}
	r.edges.Set(child, func(p *Parent) { p.Entity = parent })
}

// RemoveParent detaches child from its parent and reports whether it had one.
func (r *Registry) RemoveParent(child entity.Entity) bool {
	return r.edges.Remove(child)
}

// Parent returns the parent of child.
func (r *Registry) Parent(child entity.Entity) (entity.Entity, bool) {
	p, ok := r.edges.Get(child)
	return p.Entity, ok
}

// HasParent reports whether child has a parent edge.
func (r *Registry) HasParent(child entity.Entity) bool {
	return r.edges.Has(child)
}

// Children yields the children of parent in O(children). Mutating the
// hierarchy while iterating is not supported.
func (r *Registry) Children(parent entity.Entity) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for c := r.firstChild[parent]; c != none; c = r.nextSibling[c] {
			if !yield(entity.Entity(c)) {
				return
			}
		}
	}
}

// ChildCount returns the number of children of parent.
func (r *Registry) ChildCount(parent entity.Entity) int {
	return int(r.childCount[parent])
}

// HasChildren reports whether parent has at least one child.
func (r *Registry) HasChildren(parent entity.Entity) bool {
	return r.childCount[parent] > 0
}

// ChildSet returns a snapshot of the children of parent.
func (r *Registry) ChildSet(parent entity.Entity) set.Set[entity.Entity] {
	var s set.Set[entity.Entity]
	for c := range r.Children(parent) {
		s.Add(c)
	}
	return s
}

// Roots yields entities that have children but no parent.
func (r *Registry) Roots() iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for i := range r.roots.Indices() {
			if !yield(entity.Entity(i)) {
				return
			}
		}
	}
}

// RootCount returns the number of roots.
func (r *Registry) RootCount() int { return r.roots.Len() }

// Len returns the number of parent edges.
func (r *Registry) Len() int { return r.edges.Len() }

// Store exposes the edge registry for catalogs. Edges must be changed
// through SetParent and RemoveParent so that cycles are rejected.
func (r *Registry) Store() behavior.Store { return r.edges }

// Validate rebuilds the adjacency from the authoritative edges and compares
// it with the derived index.
func (r *Registry) Validate() error {
	want := make(map[entity.Entity]set.Set[entity.Entity])
	for child, p := range r.edges.All() {
		s := want[p.Entity]
		s.Add(child)
		want[p.Entity] = s
	}
	var wantRoots, gotRoots set.Set[entity.Entity]
	for i := 0; i < len(r.firstChild); i++ {
		e := entity.Entity(i)
		got := r.ChildSet(e)
		if !got.Equal(want[e]) {
			return fmt.Errorf("hierarchy: children of %s: index %v, edges %v", e, got, want[e])
		}
		if int(r.childCount[i]) != got.Size() {
			return fmt.Errorf("hierarchy: child count of %s is %d, index holds %d", e, r.childCount[i], got.Size())
		}
		if got.Size() > 0 && !r.edges.Has(e) {
			wantRoots.Add(e)
		}
	}
	for e := range r.Roots() {
		gotRoots.Add(e)
	}
	if !gotRoots.Equal(wantRoots) {
		return fmt.Errorf("hierarchy: roots %v, expected %v", gotRoots, wantRoots)
	}
	return nil
}

// Close detaches the registry from entity lifecycle events.
func (r *Registry) Close() {
	bus.Unsubscribe(r.sub)
	r.edges.Close()
}

func (r *Registry) onPreDeactivated(ev entity.PreEntityDeactivated) {
	for c := r.firstChild[ev.Entity]; c != none; {
		next := r.nextSibling[c]
		r.edges.Remove(entity.Entity(c))
		c = next
	}
}

func (r *Registry) link(child, parent entity.Entity) {
	head := r.firstChild[parent]
	r.nextSibling[child] = head
	r.prevSibling[child] = none
	if head != none {
		r.prevSibling[head] = int32(child)
	}
	r.firstChild[parent] = int32(child)
	r.childCount[parent]++

	r.roots.Remove(child.Index())
	if r.childCount[parent] == 1 && !r.edges.Has(parent) {
		r.roots.Set(parent.Index(), struct{}{})
	}
}

func (r *Registry) unlink(child, parent entity.Entity, orphaned bool) {
	prev, next := r.prevSibling[child], r.nextSibling[child]
	if prev != none {
		r.nextSibling[prev] = next
	} else {
		r.firstChild[parent] = next
	}
	if next != none {
		r.prevSibling[next] = prev
	}
	r.prevSibling[child] = none
	r.nextSibling[child] = none
	r.childCount[parent]--

	if r.childCount[parent] == 0 {
		r.roots.Remove(parent.Index())
	}
	if orphaned && r.childCount[child] > 0 {
		r.roots.Set(child.Index(), struct{}{})
	}
}
