package entity

import (
	"errors"
	"math"
	"strconv"
)

// MaxLimit is the largest capacity an index of type uint16 can address.
const MaxLimit = math.MaxUint16

var (
	// ErrPartitionFull is raised when a partition has no inactive slot left.
	ErrPartitionFull = errors.New("entity: partition is full")
	// ErrInactiveEntity is raised when an operation requires an active entity.
	ErrInactiveEntity = errors.New("entity: entity is not active")
	// ErrOutOfRange is raised for an entity index outside the registry capacity.
	ErrOutOfRange = errors.New("entity: index out of range")
)

// Entity names a row across all behavior stores. It carries no payload and
// owns nothing; whether it is alive is decided by the Registry.
type Entity uint16

// Index returns the entity index as an int, ready for slice addressing.
func (e Entity) Index() int { return int(e) }

func (e Entity) String() string { return "entity#" + strconv.Itoa(int(e)) }

// Partition is a contiguous sub-range of the entity index space with its
// own lifecycle.
type Partition uint8

const (
	// PartitionGlobal holds persistent entities in [0, globalPartition).
	// They survive scene resets.
	PartitionGlobal Partition = iota
	// PartitionScene holds per-scene entities in [globalPartition, maxEntities).
	PartitionScene
)

func (p Partition) String() string {
	switch p {
	case PartitionGlobal:
		return "global"
	case PartitionScene:
		return "scene"
	default:
		return "partition(" + strconv.Itoa(int(p)) + ")"
	}
}

// PreEntityDeactivated is published before an entity's active flag flips, so
// dependent registries can still read its data while cleaning up.
type PreEntityDeactivated struct {
	Entity Entity
}

// EntityDeactivated is published after an entity became inactive.
type EntityDeactivated struct {
	Entity Entity
}

// EntityEnabled is published when an active entity transitions to enabled.
type EntityEnabled struct {
	Entity Entity
}

// EntityDisabled is published when an active entity transitions to disabled.
type EntityDisabled struct {
	Entity Entity
}
