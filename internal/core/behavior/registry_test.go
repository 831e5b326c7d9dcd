package behavior

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/xassert"
)

type health struct {
	Current int
	Max     int
}

type tagged struct {
	Label string
}

type fixture struct {
	bus      *bus.Bus
	entities *entity.Registry
	trace    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := bus.New()
	f := &fixture{bus: b, entities: entity.NewRegistry(b, 32, 8)}
	bus.Subscribe(b, func(ev Added[health]) { f.trace = append(f.trace, "added:"+ev.Entity.String()) })
	bus.Subscribe(b, func(ev PreUpdated[health]) { f.trace = append(f.trace, "pre-update:"+ev.Entity.String()) })
	bus.Subscribe(b, func(ev PostUpdated[health]) { f.trace = append(f.trace, "post-update:"+ev.Entity.String()) })
	bus.Subscribe(b, func(ev PreRemoved[health]) { f.trace = append(f.trace, "pre-remove:"+ev.Entity.String()) })
	bus.Subscribe(b, func(ev PostRemoved[health]) { f.trace = append(f.trace, "post-remove:"+ev.Entity.String()) })
	return f
}

func TestRegistry_Set(t *testing.T) {
	t.Run("Add Then Update", func(t *testing.T) {
		f := newFixture(t)
		r := New[health](f.entities, f.bus)
		e := f.entities.Activate()

		r.Set(e, func(h *health) { h.Current = 10 })
		v, ok := r.Get(e)
		require.True(t, ok)
		require.Equal(t, health{Current: 10}, v)
		require.Equal(t, []string{"added:entity#8"}, f.trace)

		r.Set(e, func(h *health) { h.Current -= 3 })
		v, _ = r.Get(e)
		require.Equal(t, 7, v.Current)
		require.Equal(t, []string{"added:entity#8", "pre-update:entity#8", "post-update:entity#8"}, f.trace)
		require.Equal(t, 1, r.Len())
	})

	t.Run("Pre Update Sees Old Value", func(t *testing.T) {
		f := newFixture(t)
		r := New[health](f.entities, f.bus)
		e := f.entities.Activate()
		r.Put(e, health{Current: 1})

		var before, after int
		bus.Subscribe(f.bus, func(ev PreUpdated[health]) {
			v, _ := r.Get(ev.Entity)
			before = v.Current
		})
		bus.Subscribe(f.bus, func(ev PostUpdated[health]) {
			v, _ := r.Get(ev.Entity)
			after = v.Current
		})
		r.Put(e, health{Current: 2})
		require.Equal(t, 1, before)
		require.Equal(t, 2, after)
	})

	t.Run("Factory", func(t *testing.T) {
		f := newFixture(t)
		var seen []entity.Entity
		r := New[health](f.entities, f.bus, WithFactory(func(e entity.Entity) health {
			seen = append(seen, e)
			return health{Current: 100, Max: 100}
		}))
		e := f.entities.Activate()
		r.Set(e, func(h *health) { h.Current = 50 })
		r.Set(e, func(h *health) { h.Current = 40 })
		v, _ := r.Get(e)
		require.Equal(t, health{Current: 40, Max: 100}, v)
		require.Equal(t, []entity.Entity{e}, seen, "factory runs only on first set")
	})

	t.Run("Factory Table", func(t *testing.T) {
		f := newFixture(t)
		tbl := NewFactoryTable()
		RegisterFactory(tbl, func(entity.Entity) health { return health{Max: 7} })
		r := New[health](f.entities, f.bus, WithFactories[health](tbl))
		e := f.entities.Activate()
		r.Set(e, nil)
		v, _ := r.Get(e)
		require.Equal(t, 7, v.Max)

		explicit := New[health](f.entities, f.bus,
			WithFactory(func(entity.Entity) health { return health{Max: 9} }),
			WithFactories[health](tbl))
		explicit.Set(e, nil)
		v, _ = explicit.Get(e)
		require.Equal(t, 9, v.Max)

		other := New[tagged](f.entities, f.bus, WithFactories[tagged](tbl))
		other.Set(e, nil)
		tv, _ := other.Get(e)
		require.Equal(t, tagged{}, tv)
	})

	t.Run("Inactive Entity", func(t *testing.T) {
		f := newFixture(t)
		r := New[health](f.entities, f.bus)
		e := f.entities.Activate()
		f.entities.Deactivate(e)
		xassert.PanicsWithErrorIs(t, entity.ErrInactiveEntity, func() { r.Set(e, nil) })
		require.False(t, r.Has(e))
	})
}

func TestRegistry_Remove(t *testing.T) {
	f := newFixture(t)
	r := New[health](f.entities, f.bus)
	e := f.entities.Activate()
	r.Put(e, health{Current: 5})
	f.trace = nil

	var readable bool
	bus.Subscribe(f.bus, func(ev PreRemoved[health]) { _, readable = r.Get(ev.Entity) })

	require.True(t, r.Remove(e))
	require.True(t, readable, "value must be readable during pre-remove")
	require.False(t, r.Has(e))
	require.Equal(t, []string{"pre-remove:entity#8", "post-remove:entity#8"}, f.trace)

	require.False(t, r.Remove(e))
	require.Len(t, f.trace, 2)
}

func TestRegistry_AutoCleanup(t *testing.T) {
	f := newFixture(t)
	hp := New[health](f.entities, f.bus)
	tg := New[tagged](f.entities, f.bus)

	e := f.entities.Activate()
	keep := f.entities.Activate()
	hp.Put(e, health{Current: 1})
	tg.Put(e, tagged{Label: "x"})
	hp.Put(keep, health{Current: 2})

	var activeDuringCleanup bool
	bus.Subscribe(f.bus, func(ev PreRemoved[tagged]) { activeDuringCleanup = f.entities.IsActive(ev.Entity) })

	f.entities.Deactivate(e)
	require.False(t, hp.Has(e))
	require.False(t, tg.Has(e))
	require.True(t, activeDuringCleanup)
	require.True(t, hp.Has(keep))
	require.Equal(t, 1, hp.Len())
	require.Equal(t, 0, tg.Len())

	tg.Close()
	e2 := f.entities.Activate()
	tg.Put(e2, tagged{})
	f.entities.Deactivate(e2)
	require.True(t, tg.Has(e2), "closed registry no longer follows lifecycle")
}

func TestRegistry_Hooks(t *testing.T) {
	f := newFixture(t)
	var calls []string
	var r *Registry[health]
	r = New[health](f.entities, f.bus, WithHooks(Hooks[health]{
		Added: func(e entity.Entity, v health) {
			require.True(t, r.Has(e))
			require.NotContains(t, f.trace, "added:"+e.String())
			calls = append(calls, "added")
		},
		Updated: func(_ entity.Entity, prev, next health) {
			require.Equal(t, 1, prev.Current)
			require.Equal(t, 2, next.Current)
			calls = append(calls, "updated")
		},
		Removed: func(e entity.Entity, prev health) {
			require.False(t, r.Has(e))
			require.Equal(t, 2, prev.Current)
			calls = append(calls, "removed")
		},
	}))
	e := f.entities.Activate()
	r.Put(e, health{Current: 1})
	r.Put(e, health{Current: 2})
	r.Remove(e)
	require.Equal(t, []string{"added", "updated", "removed"}, calls)
}

func TestRegistry_All(t *testing.T) {
	f := newFixture(t)
	r := New[health](f.entities, f.bus)
	want := map[entity.Entity]int{}
	for i := 0; i < 5; i++ {
		e := f.entities.Activate()
		r.Put(e, health{Current: i})
		want[e] = i
	}
	got := map[entity.Entity]int{}
	for e, v := range r.All() {
		got[e] = v.Current
	}
	require.Equal(t, want, got)
}

func TestTagAndCatalog(t *testing.T) {
	require.Equal(t, TagOf[health](), TagOf[health]())
	require.NotEqual(t, TagOf[health](), TagOf[tagged]())

	f := newFixture(t)
	hp := New[health](f.entities, f.bus)
	require.Equal(t, TagOf[health](), hp.Tag())
	require.Equal(t, "github.com/zeusync/scenecore/internal/core/behavior.health", hp.Name())

	c := NewCatalog()
	c.Add(hp)
	xassert.PanicsWithErrorIs(t, ErrDuplicateBehavior, func() { c.Add(New[health](f.entities, f.bus)) })

	got, ok := Lookup[health](c)
	require.True(t, ok)
	require.Same(t, hp, got)

	s, ok := c.ByName(hp.Name())
	require.True(t, ok)
	require.Equal(t, hp.Tag(), s.Tag())

	_, ok = Lookup[tagged](c)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}
