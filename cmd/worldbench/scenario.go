package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeusync/scenecore/internal/core/behavior"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/transform"
	"github.com/zeusync/scenecore/internal/core/world"
	"gopkg.in/yaml.v3"
)

// Scenario describes a synthetic scene: Roots trees of the given Depth where
// every node has Fanout children.
type Scenario struct {
	Name           string  `yaml:"name"`
	Roots          int     `yaml:"roots"`
	Depth          int     `yaml:"depth"`
	Fanout         int     `yaml:"fanout"`
	GlobalEntities int     `yaml:"global_entities"`
	MutateFraction float64 `yaml:"mutate_fraction"` // share of spinning nodes touched per tick
	Seed           uint64  `yaml:"seed"`
}

func DefaultScenario() Scenario {
	return Scenario{
		Name:           "default",
		Roots:          16,
		Depth:          3,
		Fanout:         4,
		GlobalEntities: 4,
		MutateFraction: 0.1,
		Seed:           1,
	}
}

func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Roots < 0 || sc.Depth < 1 || sc.Fanout < 0 || sc.GlobalEntities < 0 {
		return Scenario{}, fmt.Errorf("scenario %s: counts must not be negative and depth must be at least 1", path)
	}
	if sc.MutateFraction < 0 || sc.MutateFraction > 1 {
		return Scenario{}, fmt.Errorf("scenario %s: mutate_fraction %v not in [0, 1]", path, sc.MutateFraction)
	}
	return sc, nil
}

// SceneEntities returns how many scene entities the scenario creates.
func (sc Scenario) SceneEntities() int {
	perTree, level := 0, 1
	for d := 0; d < sc.Depth; d++ {
		perTree += level
		level *= sc.Fanout
	}
	return sc.Roots * perTree
}

// Spin rotates a node around Z every tick it is selected.
type Spin struct {
	RadiansPerSecond float32
}

// sceneLoader builds the scenario's trees in the scene partition.
type sceneLoader struct {
	sc  Scenario
	rng *rand.Rand
}

var _ world.SceneLoader = (*sceneLoader)(nil)

func (l *sceneLoader) Load(w *world.World) error {
	free := w.Entities().Capacity() - w.Entities().Boundary()
	if need := l.sc.SceneEntities(); need > free {
		return fmt.Errorf("scenario %s needs %d scene entities, world has %d", l.sc.Name, need, free)
	}
	spin := world.Register[Spin](w)
	for r := 0; r < l.sc.Roots; r++ {
		root := l.node(w, spin, 0)
		l.grow(w, spin, root, 1)
	}
	return nil
}

func (l *sceneLoader) grow(w *world.World, spin *behavior.Registry[Spin], parent entity.Entity, depth int) {
	if depth >= l.sc.Depth {
		return
	}
	for i := 0; i < l.sc.Fanout; i++ {
		child := l.node(w, spin, depth)
		w.Hierarchy().SetParent(child, parent)
		l.grow(w, spin, child, depth+1)
	}
}

func (l *sceneLoader) node(w *world.World, spin *behavior.Registry[Spin], depth int) entity.Entity {
	e := w.Entities().Activate()
	spread := float32(100) / float32(depth+1)
	w.Transforms().Set(e, func(lt *transform.LocalTransform) {
		lt.Position = mgl32.Vec3{l.jitter(spread), l.jitter(spread), 0}
		lt.Rotation = mgl32.QuatRotate(l.rng.Float32()*2*math.Pi, mgl32.Vec3{0, 0, 1})
		lt.Anchor = mgl32.Vec3{l.jitter(1), l.jitter(1), 0}
	})
	spin.Put(e, Spin{RadiansPerSecond: l.jitter(math.Pi)})
	return e
}

func (l *sceneLoader) jitter(n float32) float32 {
	return (l.rng.Float32()*2 - 1) * n
}

// spinSystem rotates a random share of spinning nodes.
func spinSystem(fraction float64, rng *rand.Rand) world.System {
	return world.SystemFunc("spin", world.PhaseUpdate, func(w *world.World, dt time.Duration) {
		spin := world.Register[Spin](w)
		for e, s := range spin.All() {
			if rng.Float64() >= fraction {
				continue
			}
			step := mgl32.QuatRotate(s.RadiansPerSecond*float32(dt.Seconds()), mgl32.Vec3{0, 0, 1})
			w.Transforms().Set(e, func(lt *transform.LocalTransform) {
				lt.Rotation = step.Mul(lt.Rotation).Normalize()
			})
		}
	})
}

// spawnGlobals creates persistent entities that survive scene reloads.
func spawnGlobals(w *world.World, n int) {
	for i := 0; i < n; i++ {
		e := w.Entities().ActivateIn(entity.PartitionGlobal)
		w.Transforms().Set(e, func(lt *transform.LocalTransform) {
			lt.Position = mgl32.Vec3{0, 0, float32(10 * (i + 1))}
		})
	}
}
