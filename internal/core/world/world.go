package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeusync/scenecore/internal/core/behavior"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/events/bus"
	"github.com/zeusync/scenecore/internal/core/hierarchy"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/core/transform"
)

// ErrShutdown is raised when a world is used after Shutdown.
var ErrShutdown = errors.New("world: shut down")

// Config sizes a world.
type Config struct {
	MaxEntities     int
	GlobalPartition int
}

// DefaultConfig returns the capacity used when nothing is configured.
func DefaultConfig() Config {
	return Config{MaxEntities: 8192, GlobalPartition: 256}
}

// World owns every registry of one simulation. Worlds share no state, so
// independent worlds may run on separate goroutines; a single world is
// driven from one goroutine.
type World struct {
	config     Config
	logger     log.Log
	bus        *bus.Bus
	factories  *behavior.FactoryTable
	catalog    *behavior.Catalog
	entities   *entity.Registry
	hierarchy  *hierarchy.Registry
	transforms *transform.Registry
	systems    runner

	frame       uint64
	initialized bool
	shutdown    bool
}

// Option configures a World before its registries are created.
type Option func(*World)

// WithFactories installs the initial-value factories behaviors of this
// world resolve on first set.
func WithFactories(tbl *behavior.FactoryTable) Option {
	return func(w *World) { w.factories = tbl }
}

// New builds a world. It panics when cfg describes an invalid capacity or
// partition boundary.
func New(cfg Config, logger log.Log, opts ...Option) *World {
	w := &World{
		config:    cfg,
		logger:    logger.Named("world"),
		bus:       bus.New(),
		factories: behavior.NewFactoryTable(),
		catalog:   behavior.NewCatalog(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.entities = entity.NewRegistry(w.bus, cfg.MaxEntities, cfg.GlobalPartition)
	w.hierarchy = hierarchy.New(w.entities, w.bus)
	w.transforms = transform.New(w.entities, w.hierarchy, w.bus, w.factories)
	w.catalog.Add(w.hierarchy.Store())
	w.catalog.Add(w.transforms.Locals())
	w.catalog.Add(w.transforms.Worlds())
	return w
}

// Config returns the configuration the world was built with.
func (w *World) Config() Config { return w.config }

// Logger returns the world logger.
func (w *World) Logger() log.Log { return w.logger }

// Bus returns the event bus shared by every registry of the world.
func (w *World) Bus() *bus.Bus { return w.bus }

// Factories returns the initial-value factory table consulted by Register.
func (w *World) Factories() *behavior.FactoryTable { return w.factories }

// Catalog returns every behavior registry of the world, keyed by tag.
func (w *World) Catalog() *behavior.Catalog { return w.catalog }

// Entities returns the entity registry.
func (w *World) Entities() *entity.Registry { return w.entities }

// Hierarchy returns the parent/child registry.
func (w *World) Hierarchy() *hierarchy.Registry { return w.hierarchy }

// Transforms returns the local/world transform registry.
func (w *World) Transforms() *transform.Registry { return w.transforms }

// Frame returns the number of completed ticks.
func (w *World) Frame() uint64 { return w.frame }

// Register returns the registry of T, creating it on first use. Later calls
// return the same registry and ignore opts. New registries resolve their
// factory from the world's factory table unless opts set one.
func Register[T any](w *World, opts ...behavior.Option[T]) *behavior.Registry[T] {
	if r, ok := behavior.Lookup[T](w.catalog); ok {
		return r
	}
	opts = append([]behavior.Option[T]{behavior.WithFactories[T](w.factories)}, opts...)
	r := behavior.New[T](w.entities, w.bus, opts...)
	w.catalog.Add(r)
	w.logger.Debug("behavior registered", log.String("type", r.Name()), log.Stringer("tag", r.Tag()))
	return r
}

// AddSystem schedules s on every tick.
func (w *World) AddSystem(s System) {
	w.systems.add(s)
	w.logger.Debug("system added", log.String("system", s.Name()), log.Stringer("phase", s.Phase()))
}

// RemoveSystem unschedules the systems named name and reports whether any
// was found. It must not be called from a system's Update.
func (w *World) RemoveSystem(name string) bool {
	return w.systems.remove(name)
}

// Initialize publishes Initialize once. Later calls do nothing.
func (w *World) Initialize() {
	w.mustBeRunning()
	if w.initialized {
		return
	}
	w.initialized = true
	bus.Publish(w.bus, Initialize{})
	w.logger.Info("world initialized",
		log.Int("max_entities", w.config.MaxEntities),
		log.Int("global_partition", w.config.GlobalPartition))
}

// Reset deactivates every scene entity, keeping the global partition and its
// behaviors, then publishes Reset.
func (w *World) Reset() {
	w.mustBeRunning()
	n := w.entities.CountIn(entity.PartitionScene)
	w.entities.ResetScene()
	bus.Publish(w.bus, Reset{})
	w.logger.Info("world reset", log.Int("deactivated", n))
}

// Shutdown publishes Shutdown, deactivates every entity and detaches the
// registries from the bus. The world cannot be used afterwards.
func (w *World) Shutdown() {
	if w.shutdown {
		return
	}
	bus.Publish(w.bus, Shutdown{})
	w.entities.DeactivateAll()
	w.transforms.Close()
	w.hierarchy.Close()
	for s := range w.catalog.All() {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
	w.shutdown = true
	w.logger.Info("world shut down", log.Uint64("frames", w.frame))
}

// Tick runs the systems of every phase up to PhasePostUpdate, recalculates
// world transforms, runs PhaseLateUpdate systems and advances the frame.
func (w *World) Tick(dt time.Duration) {
	w.mustBeRunning()
	w.systems.run(w, dt, PhasePreUpdate, PhasePostUpdate)
	w.transforms.Recalculate()
	w.systems.run(w, dt, PhaseLateUpdate, PhaseLateUpdate)
	w.frame++
}

// ReportError publishes a soft error and logs it at warn level.
func (w *World) ReportError(source string, err error) {
	w.logger.Warn("soft error", log.String("source", source), log.Error(err))
	bus.Publish(w.bus, ErrorEvent{Source: source, Err: err})
}

// SceneLoader populates a world from an external description.
type SceneLoader interface {
	Load(w *World) error
}

// SceneLoaderFunc adapts a function to SceneLoader.
type SceneLoaderFunc func(w *World) error

func (f SceneLoaderFunc) Load(w *World) error { return f(w) }

// LoadScene resets the scene partition and runs l. A failure is reported as
// a soft error and returned; whatever l created before failing stays active
// until the next reset.
func (w *World) LoadScene(source string, l SceneLoader) error {
	w.Reset()
	start := time.Now()
	if err := l.Load(w); err != nil {
		err = fmt.Errorf("load scene: %w", err)
		w.ReportError(source, err)
		return err
	}
	w.logger.Info("scene loaded",
		log.String("source", source),
		log.Int("entities", w.entities.CountIn(entity.PartitionScene)),
		log.Duration("elapsed", time.Since(start)))
	return nil
}

func (w *World) mustBeRunning() {
	if w.shutdown {
		panic(ErrShutdown)
	}
}
