package entity

import (
	"fmt"
	"iter"

	"github.com/zeusync/scenecore/internal/core/events/bus"
)

type partitionRange struct {
	start, end int // [start, end)
	cursor     int
	active     int
}

// Registry is a fixed-capacity pool of entity handles.
//
// Lifecycle per entity:
//
//	Inactive -> Active&Enabled -> {Active&Disabled <-> Active&Enabled} -> Inactive
//
// Allocation is partitioned: global (persistent) entities live below the
// partition boundary, scene entities at or above it. The registry is driven
// from a single goroutine.
type Registry struct {
	bus        *bus.Bus
	active     []bool
	enabled    []bool
	partitions [2]partitionRange
}

// NewRegistry creates a registry with capacity maxEntities whose global
// partition covers [0, globalPartition).
func NewRegistry(b *bus.Bus, maxEntities, globalPartition int) *Registry {
	if maxEntities <= 0 || maxEntities > MaxLimit {
		panic(fmt.Errorf("%w: capacity %d not in (0, %d]", ErrOutOfRange, maxEntities, MaxLimit))
	}
	if globalPartition <= 0 || globalPartition >= maxEntities {
		panic(fmt.Errorf("%w: partition boundary %d not in (0, %d)", ErrOutOfRange, globalPartition, maxEntities))
	}
	r := &Registry{
		bus:     b,
		active:  make([]bool, maxEntities),
		enabled: make([]bool, maxEntities),
	}
	r.partitions[PartitionGlobal] = partitionRange{start: 0, end: globalPartition, cursor: 0}
	r.partitions[PartitionScene] = partitionRange{start: globalPartition, end: maxEntities, cursor: globalPartition}
	return r
}

// Capacity returns the total number of entity slots.
func (r *Registry) Capacity() int { return len(r.active) }

// Boundary returns the first scene-partition index.
func (r *Registry) Boundary() int { return r.partitions[PartitionScene].start }

// Activate allocates a scene entity. It panics with ErrPartitionFull when no
// scene slot is free.
func (r *Registry) Activate() Entity {
	return r.ActivateIn(PartitionScene)
}

// ActivateIn allocates an entity inside partition p, scanning forward
// circularly from the partition cursor. The entity starts active and enabled.
func (r *Registry) ActivateIn(p Partition) Entity {
	if int(p) >= len(r.partitions) {
		panic(fmt.Errorf("%w: unknown %s", ErrOutOfRange, p))
	}
	pr := &r.partitions[p]
	size := pr.end - pr.start
	if pr.active == size {
		panic(fmt.Errorf("%w: %s holds %d entities", ErrPartitionFull, p, size))
	}
	i := pr.cursor
	for n := 0; n < size; n++ {
		if !r.active[i] {
			r.active[i] = true
			r.enabled[i] = true
			pr.active++
			pr.cursor = i + 1
			if pr.cursor == pr.end {
				pr.cursor = pr.start
			}
			return Entity(i)
		}
		i++
		if i == pr.end {
			i = pr.start
		}
	}
	panic(fmt.Errorf("%w: %s", ErrPartitionFull, p))
}

// Deactivate retires e. It is a no-op for an inactive entity. Subscribers of
// PreEntityDeactivated run while e is still active; EntityDeactivated follows
// once the flag has flipped.
func (r *Registry) Deactivate(e Entity) {
	r.check(e)
	if !r.active[e] {
		return
	}
	bus.Publish(r.bus, PreEntityDeactivated{Entity: e})
	r.active[e] = false
	r.enabled[e] = false
	r.partitions[r.PartitionOf(e)].active--
	bus.Publish(r.bus, EntityDeactivated{Entity: e})
}

// Enable marks an active entity enabled. EntityEnabled is published only on
// an actual transition.
func (r *Registry) Enable(e Entity) {
	r.mustBeActive(e)
	if r.enabled[e] {
		return
	}
	r.enabled[e] = true
	bus.Publish(r.bus, EntityEnabled{Entity: e})
}

// Disable marks an active entity disabled. EntityDisabled is published only
// on an actual transition.
func (r *Registry) Disable(e Entity) {
	r.mustBeActive(e)
	if !r.enabled[e] {
		return
	}
	r.enabled[e] = false
	bus.Publish(r.bus, EntityDisabled{Entity: e})
}

// IsActive reports whether e is allocated. Out-of-range handles are inactive.
func (r *Registry) IsActive(e Entity) bool {
	return int(e) < len(r.active) && r.active[e]
}

// IsEnabled reports whether e is active and enabled.
func (r *Registry) IsEnabled(e Entity) bool {
	return int(e) < len(r.enabled) && r.enabled[e]
}

// PartitionOf returns the partition owning e's index.
func (r *Registry) PartitionOf(e Entity) Partition {
	if int(e) < r.partitions[PartitionScene].start {
		return PartitionGlobal
	}
	return PartitionScene
}

// Count returns the number of active entities across partitions.
func (r *Registry) Count() int {
	return r.partitions[PartitionGlobal].active + r.partitions[PartitionScene].active
}

// CountIn returns the number of active entities in partition p.
func (r *Registry) CountIn(p Partition) int {
	return r.partitions[p].active
}

// Active yields active entities in ascending index order.
func (r *Registry) Active() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i, ok := range r.active {
			if ok && !yield(Entity(i)) {
				return
			}
		}
	}
}

// ResetScene deactivates every active scene entity in ascending index order
// and rewinds the scene cursor. Global entities and their behaviors are untouched.
func (r *Registry) ResetScene() {
	r.resetPartition(PartitionScene)
}

// DeactivateAll deactivates every active entity in both partitions and
// rewinds both cursors.
func (r *Registry) DeactivateAll() {
	r.resetPartition(PartitionScene)
	r.resetPartition(PartitionGlobal)
}

func (r *Registry) resetPartition(p Partition) {
	pr := &r.partitions[p]
	for i := pr.start; i < pr.end && pr.active > 0; i++ {
		if r.active[i] {
			r.Deactivate(Entity(i))
		}
	}
	pr.cursor = pr.start
}

// MustBeActive panics with ErrInactiveEntity unless e is active.
func (r *Registry) MustBeActive(e Entity) {
	r.mustBeActive(e)
}

func (r *Registry) mustBeActive(e Entity) {
	r.check(e)
	if !r.active[e] {
		panic(fmt.Errorf("%w: %s", ErrInactiveEntity, e))
	}
}

func (r *Registry) check(e Entity) {
	if int(e) >= len(r.active) {
		panic(fmt.Errorf("%w: %s not below capacity %d", ErrOutOfRange, e, len(r.active)))
	}
}
