package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/xassert"
)

func newTestRegistry(t *testing.T) (*Registry, *bus.Bus) {
	t.Helper()
	b := bus.New()
	return NewRegistry(b, 16, 4), b
}

func TestRegistry_Activate(t *testing.T) {
	t.Run("Scene Partition", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		e := r.Activate()
		require.Equal(t, Entity(4), e)
		require.True(t, r.IsActive(e))
		require.True(t, r.IsEnabled(e))
		require.Equal(t, PartitionScene, r.PartitionOf(e))
		require.Equal(t, 1, r.Count())
		require.Equal(t, 1, r.CountIn(PartitionScene))
	})

	t.Run("Global Partition", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		for i := 0; i < 4; i++ {
			e := r.ActivateIn(PartitionGlobal)
			require.Equal(t, Entity(i), e)
			require.Equal(t, PartitionGlobal, r.PartitionOf(e))
		}
		xassert.PanicsWithErrorIs(t, ErrPartitionFull, func() { r.ActivateIn(PartitionGlobal) })
		// the scene partition is unaffected
		require.Equal(t, Entity(4), r.Activate())
	})

	t.Run("Scene Full", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		for i := 0; i < 12; i++ {
			r.Activate()
		}
		xassert.PanicsWithErrorIs(t, ErrPartitionFull, func() { r.Activate() })
		require.Equal(t, 0, r.CountIn(PartitionGlobal))
	})

	t.Run("Circular Cursor", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		var all []Entity
		for i := 0; i < 12; i++ {
			all = append(all, r.Activate())
		}
		r.Deactivate(all[2])
		// cursor wrapped to the start; the freed slot is found by the forward scan
		require.Equal(t, all[2], r.Activate())

		r.Deactivate(all[5])
		r.Deactivate(all[0])
		// scan continues forward from the last allocation
		require.Equal(t, all[5], r.Activate())
		require.Equal(t, all[0], r.Activate())
	})

	t.Run("Invalid Construction", func(t *testing.T) {
		b := bus.New()
		xassert.PanicsWithErrorIs(t, ErrOutOfRange, func() { NewRegistry(b, 0, 0) })
		xassert.PanicsWithErrorIs(t, ErrOutOfRange, func() { NewRegistry(b, 8, 8) })
		xassert.PanicsWithErrorIs(t, ErrOutOfRange, func() { NewRegistry(b, MaxLimit+1, 8) })
	})
}

func TestRegistry_Deactivate(t *testing.T) {
	t.Run("Event Ordering", func(t *testing.T) {
		r, b := newTestRegistry(t)
		e := r.Activate()

		var trace []string
		bus.Subscribe(b, func(ev PreEntityDeactivated) {
			require.Equal(t, e, ev.Entity)
			require.True(t, r.IsActive(ev.Entity), "entity must still be active during pre event")
			trace = append(trace, "pre-1")
		})
		bus.Subscribe(b, func(ev PreEntityDeactivated) {
			require.True(t, r.IsActive(ev.Entity))
			trace = append(trace, "pre-2")
		})
		bus.Subscribe(b, func(ev EntityDeactivated) {
			require.False(t, r.IsActive(ev.Entity))
			trace = append(trace, "post")
		})

		r.Deactivate(e)
		require.Equal(t, []string{"pre-1", "pre-2", "post"}, trace)
		require.False(t, r.IsActive(e))
		require.False(t, r.IsEnabled(e))
		require.Equal(t, 0, r.Count())
	})

	t.Run("Idempotent", func(t *testing.T) {
		r, b := newTestRegistry(t)
		e := r.Activate()
		calls := 0
		bus.Subscribe(b, func(PreEntityDeactivated) { calls++ })
		r.Deactivate(e)
		r.Deactivate(e)
		require.Equal(t, 1, calls)
		require.Equal(t, 0, r.CountIn(PartitionScene))
	})

	t.Run("Out Of Range", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		xassert.PanicsWithErrorIs(t, ErrOutOfRange, func() { r.Deactivate(Entity(99)) })
		require.False(t, r.IsActive(Entity(99)))
	})
}

func TestRegistry_EnableDisable(t *testing.T) {
	r, b := newTestRegistry(t)
	e := r.Activate()

	enabled, disabled := 0, 0
	bus.Subscribe(b, func(EntityEnabled) { enabled++ })
	bus.Subscribe(b, func(EntityDisabled) { disabled++ })

	r.Enable(e)
	require.Equal(t, 0, enabled, "already enabled")

	r.Disable(e)
	r.Disable(e)
	require.Equal(t, 1, disabled)
	require.True(t, r.IsActive(e))
	require.False(t, r.IsEnabled(e))

	r.Enable(e)
	r.Enable(e)
	require.Equal(t, 1, enabled)
	require.True(t, r.IsEnabled(e))

	r.Deactivate(e)
	xassert.PanicsWithErrorIs(t, ErrInactiveEntity, func() { r.Enable(e) })
	xassert.PanicsWithErrorIs(t, ErrInactiveEntity, func() { r.Disable(e) })
	xassert.PanicsWithErrorIs(t, ErrInactiveEntity, func() { r.MustBeActive(e) })
}

func TestRegistry_ResetScene(t *testing.T) {
	r, b := newTestRegistry(t)
	global := r.ActivateIn(PartitionGlobal)
	var scene []Entity
	for i := 0; i < 5; i++ {
		scene = append(scene, r.Activate())
	}

	var order []Entity
	bus.Subscribe(b, func(ev EntityDeactivated) { order = append(order, ev.Entity) })

	r.ResetScene()
	require.Equal(t, scene, order)
	require.True(t, r.IsActive(global))
	require.Equal(t, 1, r.Count())
	for _, e := range scene {
		require.False(t, r.IsActive(e))
	}
	// cursor rewound to the partition start
	require.Equal(t, Entity(4), r.Activate())

	r.DeactivateAll()
	require.Equal(t, 0, r.Count())
	require.False(t, r.IsActive(global))
	require.Equal(t, Entity(0), r.ActivateIn(PartitionGlobal))
}

func TestRegistry_Active(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := r.ActivateIn(PartitionGlobal)
	c := r.Activate()
	d := r.Activate()
	r.Deactivate(c)

	var got []Entity
	for e := range r.Active() {
		got = append(got, e)
	}
	require.Equal(t, []Entity{a, d}, got)
	require.Equal(t, 16, r.Capacity())
	require.Equal(t, 4, r.Boundary())
	require.Equal(t, "entity#4", Entity(4).String())
	require.Equal(t, "scene", PartitionScene.String())
}
