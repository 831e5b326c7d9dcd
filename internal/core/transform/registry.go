package transform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeusync/scenecore/internal/core/behavior"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/core/hierarchy"
)

// Stats describes the work done by recalculation passes.
type Stats struct {
	Passes         uint64
	Recomputed     uint64
	LastRecomputed int
}

type frame struct {
	e      entity.Entity
	parent mgl32.Mat4
}

// Registry owns LocalTransform and WorldTransform and keeps world matrices
// in sync with local transforms and the hierarchy.
//
// An entity is dirty when its LocalTransform or its parent edge changed since
// the last pass. Recalculate recomputes every dirty entity together with its
// whole subtree, parents strictly before children, and leaves every other
// WorldTransform untouched.
type Registry struct {
	entities  *entity.Registry
	hierarchy *hierarchy.Registry
	locals    *behavior.Registry[LocalTransform]
	worlds    *behavior.Registry[WorldTransform]
	dirty     []bool
	queued    []bool
	pending   []entity.Entity
	stack     []frame
	subs      []*bus.Subscription
	stats     Stats
}

// New creates the transform registry. The LocalTransform factory is taken
// from tbl when registered there; otherwise DefaultLocal is used. tbl may be nil.
func New(entities *entity.Registry, h *hierarchy.Registry, b *bus.Bus, tbl *behavior.FactoryTable) *Registry {
	factory := behavior.WithFactory(DefaultLocal)
	if _, ok := behavior.FactoryFor[LocalTransform](tbl); ok {
		factory = behavior.WithFactories[LocalTransform](tbl)
	}
	n := entities.Capacity()
	r := &Registry{
		entities:  entities,
		hierarchy: h,
		locals:    behavior.New[LocalTransform](entities, b, factory),
		worlds:    behavior.New[WorldTransform](entities, b),
		dirty:     make([]bool, n),
		queued:    make([]bool, n),
		pending:   make([]entity.Entity, 0, n),
		stack:     make([]frame, 0, n),
	}
	r.subs = append(r.subs,
		bus.Subscribe(b, func(ev behavior.Added[LocalTransform]) { r.markDirty(ev.Entity) }),
		bus.Subscribe(b, func(ev behavior.PostUpdated[LocalTransform]) { r.markDirty(ev.Entity) }),
		bus.Subscribe(b, func(ev behavior.PostRemoved[LocalTransform]) { r.markDirty(ev.Entity) }),
		bus.Subscribe(b, func(ev behavior.Added[hierarchy.Parent]) { r.onReparented(ev.Entity) }),
		bus.Subscribe(b, func(ev behavior.PostUpdated[hierarchy.Parent]) { r.onReparented(ev.Entity) }),
		bus.Subscribe(b, func(ev behavior.PostRemoved[hierarchy.Parent]) { r.markDirty(ev.Entity) }),
		bus.Subscribe(b, func(ev entity.EntityDeactivated) { r.dirty[ev.Entity] = false }),
	)
	return r
}

// Set creates or mutates the LocalTransform of e. New values start from the
// registered factory (identity by default).
func (r *Registry) Set(e entity.Entity, mutate func(*LocalTransform)) {
	r.locals.Set(e, mutate)
}

// Local returns the LocalTransform of e.
func (r *Registry) Local(e entity.Entity) (LocalTransform, bool) {
	return r.locals.Get(e)
}

// World returns the last computed world matrix of e.
func (r *Registry) World(e entity.Entity) (mgl32.Mat4, bool) {
	w, ok := r.worlds.Get(e)
	return w.Matrix, ok
}

// IsDirty reports whether e waits for recomputation.
func (r *Registry) IsDirty(e entity.Entity) bool {
	return r.dirty[e]
}

// Pending returns the number of entities marked dirty since the last pass.
func (r *Registry) Pending() int { return len(r.pending) }

// Locals exposes the LocalTransform registry.
func (r *Registry) Locals() *behavior.Registry[LocalTransform] { return r.locals }

// Worlds exposes the WorldTransform registry. World matrices are written by
// Recalculate only.
func (r *Registry) Worlds() *behavior.Registry[WorldTransform] { return r.worlds }

// Stats returns counters of the passes run so far.
func (r *Registry) Stats() Stats { return r.stats }

// Recalculate brings every dirty WorldTransform up to date. It is cheap when
// nothing changed and idempotent: a second call without intervening
// mutations recomputes nothing. Entities dirtied by handlers of the events
// published during the pass are recomputed in the same pass.
func (r *Registry) Recalculate() {
	r.stats.Passes++
	r.stats.LastRecomputed = 0
	r.drain()
}

// RecalculateAll recomputes every placed entity from the hierarchy roots and
// the standalone transforms, regardless of dirty state.
func (r *Registry) RecalculateAll() {
	r.stats.Passes++
	r.stats.LastRecomputed = 0
	for root := range r.hierarchy.Roots() {
		r.walk(root, mgl32.Ident4())
	}
	for e := range r.locals.All() {
		if !r.hierarchy.HasParent(e) && !r.hierarchy.HasChildren(e) {
			r.walk(e, mgl32.Ident4())
		}
	}
	// entries left dirty were marked by handlers during the walks above
	r.drain()
}

// drain processes pending by index, so entries appended while it runs are
// handled before it returns.
func (r *Registry) drain() {
	for i := 0; i < len(r.pending); i++ {
		e := r.pending[i]
		r.queued[e] = false
		if !r.dirty[e] {
			// recomputed as part of a dirty ancestor's subtree, or deactivated
			continue
		}
		if !r.locals.Has(e) && !r.hierarchy.HasParent(e) && !r.hierarchy.HasChildren(e) {
			// nothing left to place
			r.worlds.Remove(e)
			r.dirty[e] = false
			continue
		}
		if r.hasDirtyAncestor(e) {
			// the ancestor is still pending and will cover this subtree
			continue
		}
		r.walk(e, r.parentWorld(e))
	}
	r.pending = r.pending[:0]
}

// Close detaches the registry from the bus.
func (r *Registry) Close() {
	for _, s := range r.subs {
		bus.Unsubscribe(s)
	}
	r.locals.Close()
	r.worlds.Close()
}

// walk recomputes start and its descendants depth-first, parents first.
func (r *Registry) walk(start entity.Entity, parent mgl32.Mat4) {
	r.stack = append(r.stack[:0], frame{e: start, parent: parent})
	for len(r.stack) > 0 {
		top := len(r.stack) - 1
		f := r.stack[top]
		r.stack = r.stack[:top]

		local := mgl32.Ident4()
		if lt, ok := r.locals.Get(f.e); ok {
			local = LocalMatrix(lt)
		}
		world := Compose(local, f.parent)
		r.worlds.Put(f.e, WorldTransform{Matrix: world})
		r.dirty[f.e] = false
		r.stats.Recomputed++
		r.stats.LastRecomputed++

		for c := range r.hierarchy.Children(f.e) {
			r.stack = append(r.stack, frame{e: c, parent: world})
		}
	}
}

func (r *Registry) parentWorld(e entity.Entity) mgl32.Mat4 {
	p, ok := r.hierarchy.Parent(e)
	if !ok {
		return mgl32.Ident4()
	}
	if w, ok := r.worlds.Get(p); ok {
		return w.Matrix
	}
	return mgl32.Ident4()
}

func (r *Registry) hasDirtyAncestor(e entity.Entity) bool {
	for p, ok := r.hierarchy.Parent(e); ok; p, ok = r.hierarchy.Parent(p) {
		if r.dirty[p] {
			return true
		}
	}
	return false
}

// markDirty queues e at most once until the next drain. A deactivated entity
// keeps its queue slot, so recycled indices never grow pending past capacity.
func (r *Registry) markDirty(e entity.Entity) {
	if r.dirty[e] || !r.entities.IsActive(e) {
		return
	}
	r.dirty[e] = true
	if !r.queued[e] {
		r.queued[e] = true
		r.pending = append(r.pending, e)
	}
}

func (r *Registry) onReparented(child entity.Entity) {
	r.markDirty(child)
	// a parent that was never placed needs its own world matrix first
	if p, ok := r.hierarchy.Parent(child); ok && !r.worlds.Has(p) {
		r.markDirty(p)
	}
}
