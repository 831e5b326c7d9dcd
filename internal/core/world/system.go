package world

import (
	"slices"
	"time"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: drain input and collaborator queues
	PhaseUpdate                  // 1: simulation logic, sequencing, rules
	PhasePostUpdate              // 2: reactions to this tick's changes
	PhaseLateUpdate              // 3: runs after transforms are recalculated
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseLateUpdate:
		return "late-update"
	default:
		return "phase(?)"
	}
}

// System is a per-tick processor driven by the world.
type System interface {
	Name() string
	Phase() Phase
	Update(w *World, dt time.Duration)
}

type funcSystem struct {
	name   string
	phase  Phase
	update func(w *World, dt time.Duration)
}

func (s funcSystem) Name() string                      { return s.name }
func (s funcSystem) Phase() Phase                      { return s.phase }
func (s funcSystem) Update(w *World, dt time.Duration) { s.update(w, dt) }

// SystemFunc adapts a function to System.
func SystemFunc(name string, phase Phase, fn func(w *World, dt time.Duration)) System {
	return funcSystem{name: name, phase: phase, update: fn}
}

// runner executes systems in phase order; systems of the same phase keep
// their registration order.
type runner struct {
	systems []System
	sorted  bool
}

func (r *runner) add(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *runner) remove(name string) bool {
	n := len(r.systems)
	r.systems = slices.DeleteFunc(r.systems, func(s System) bool { return s.Name() == name })
	return len(r.systems) != n
}

// run executes every system whose phase is in [from, to].
func (r *runner) run(w *World, dt time.Duration, from, to Phase) {
	r.ensureSorted()
	for _, s := range r.systems {
		if p := s.Phase(); p >= from && p <= to {
			s.Update(w, dt)
		}
	}
}

func (r *runner) ensureSorted() {
	if !r.sorted {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return int(a.Phase()) - int(b.Phase())
		})
		r.sorted = true
	}
}
