package behavior

import "github.com/zeusync/scenecore/internal/core/entity"

// Added is published after the first value of T was stored for Entity.
type Added[T any] struct {
	Entity entity.Entity
}

// PreUpdated is published before an existing value of T is mutated.
type PreUpdated[T any] struct {
	Entity entity.Entity
}

// PostUpdated is published after an existing value of T was mutated.
type PostUpdated[T any] struct {
	Entity entity.Entity
}

// PreRemoved is published while the value of T is still readable.
type PreRemoved[T any] struct {
	Entity entity.Entity
}

// PostRemoved is published after the value of T was removed.
type PostRemoved[T any] struct {
	Entity entity.Entity
}
