package main

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/core/world"
)

func TestScenario_SceneEntities(t *testing.T) {
	sc := Scenario{Roots: 2, Depth: 3, Fanout: 2}
	require.Equal(t, 14, sc.SceneEntities())
	sc.Fanout = 0
	require.Equal(t, 2, sc.SceneEntities())
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: forest\nroots: 3\ndepth: 2\n"), 0o600))
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Equal(t, "forest", sc.Name)
	require.Equal(t, 3, sc.Roots)
	require.Equal(t, 4, sc.Fanout, "unset keys keep defaults")

	require.NoError(t, os.WriteFile(path, []byte("mutate_fraction: 2\n"), 0o600))
	_, err = LoadScenario(path)
	require.ErrorContains(t, err, "mutate_fraction")
}

func TestSceneLoader(t *testing.T) {
	w := world.New(world.Config{MaxEntities: 256, GlobalPartition: 16}, log.NewNop())
	sc := Scenario{Name: "small", Roots: 2, Depth: 3, Fanout: 3, GlobalEntities: 2, MutateFraction: 1, Seed: 9}
	rng := rand.New(rand.NewPCG(sc.Seed, 0))

	spawnGlobals(w, sc.GlobalEntities)
	require.NoError(t, w.LoadScene(sc.Name, &sceneLoader{sc: sc, rng: rng}))
	require.Equal(t, sc.SceneEntities(), w.Entities().CountIn(entity.PartitionScene))
	require.Equal(t, 2, w.Entities().CountIn(entity.PartitionGlobal))
	require.Equal(t, sc.Roots, w.Hierarchy().RootCount())
	require.NoError(t, w.Hierarchy().Validate())

	w.AddSystem(spinSystem(sc.MutateFraction, rng))
	w.Tick(16 * time.Millisecond)
	require.Equal(t, sc.SceneEntities()+sc.GlobalEntities, w.Transforms().Worlds().Len())
	require.Equal(t, 0, w.Transforms().Pending())

	w.Tick(16 * time.Millisecond)
	require.Equal(t, sc.SceneEntities(), w.Transforms().Stats().LastRecomputed)

	require.NoError(t, w.LoadScene(sc.Name, &sceneLoader{sc: sc, rng: rng}))
	require.Equal(t, 2, w.Entities().CountIn(entity.PartitionGlobal))

	big := sc
	big.Roots = 1000
	require.Error(t, w.LoadScene("big", &sceneLoader{sc: big, rng: rng}))
}
