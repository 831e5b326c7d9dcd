package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/injector"
	"github.com/zeusync/scenecore/pkg/concurrent"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type result struct {
	World      int
	Frames     uint64
	Entities   int
	Recomputed uint64
	Elapsed    time.Duration
}

func run() error {
	configPath := flag.String("config", "", "TOML or YAML configuration file")
	scenarioPath := flag.String("scenario", "", "YAML scenario file (overrides bench.scenario)")
	worlds := flag.Int("worlds", 0, "number of independent worlds (overrides bench.worlds)")
	ticks := flag.Int("ticks", -1, "ticks per world (overrides bench.ticks)")
	flag.Parse()

	rt, cleanup, err := injector.InitializeRuntime(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := rt.Logger

	bench := rt.Config.Bench
	if *worlds > 0 {
		bench.Worlds = *worlds
	}
	if *ticks >= 0 {
		bench.Ticks = *ticks
	}
	if *scenarioPath != "" {
		bench.Scenario = *scenarioPath
	}
	sc := DefaultScenario()
	if bench.Scenario != "" {
		if sc, err = LoadScenario(bench.Scenario); err != nil {
			return err
		}
	}
	if sc.GlobalEntities > rt.Config.World.GlobalPartition {
		return fmt.Errorf("scenario %s needs %d global entities, partition holds %d",
			sc.Name, sc.GlobalEntities, rt.Config.World.GlobalPartition)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("benchmark starting",
		log.String("scenario", sc.Name),
		log.Int("worlds", bench.Worlds),
		log.Int("ticks", bench.Ticks),
		log.Int("scene_entities", sc.SceneEntities()))

	ids := slices.Collect(concurrent.Range(bench.Worlds))
	results, err := concurrent.ParallelMap(ctx, ids, 0, func(ctx context.Context, id int) (result, error) {
		return simulate(ctx, rt, sc, id, bench.Ticks, bench.TickRate)
	})
	if err != nil {
		return err
	}
	report(results)
	return nil
}

func simulate(ctx context.Context, rt *injector.Runtime, sc Scenario, id, ticks int, dt time.Duration) (result, error) {
	w, shutdown := injector.InitializeWorld(rt.Config, rt.Logger.With(log.Int("world", id)))
	defer shutdown()

	rng := rand.New(rand.NewPCG(sc.Seed, uint64(id)))
	spawnGlobals(w, sc.GlobalEntities)
	if err := w.LoadScene(sc.Name, &sceneLoader{sc: sc, rng: rng}); err != nil {
		return result{}, err
	}
	w.AddSystem(spinSystem(sc.MutateFraction, rng))

	start := time.Now()
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		w.Tick(dt)
	}
	return result{
		World:      id,
		Frames:     w.Frame(),
		Entities:   w.Entities().Count(),
		Recomputed: w.Transforms().Stats().Recomputed,
		Elapsed:    time.Since(start),
	}, nil
}

func report(results []result) {
	var frames, recomputed uint64
	var elapsed time.Duration
	for _, r := range results {
		fmt.Printf("world %-3d %s entities  %s frames  %s recomputed  %s\n",
			r.World,
			humanize.Comma(int64(r.Entities)),
			humanize.Comma(int64(r.Frames)),
			humanize.Comma(int64(r.Recomputed)),
			r.Elapsed.Round(time.Microsecond))
		frames += r.Frames
		recomputed += r.Recomputed
		elapsed = max(elapsed, r.Elapsed)
	}
	if elapsed <= 0 {
		return
	}
	fmt.Printf("total     %s frames  %s recomputed  %s\n",
		humanize.Comma(int64(frames)),
		humanize.Comma(int64(recomputed)),
		humanize.SIWithDigits(float64(recomputed)/elapsed.Seconds(), 2, "transforms/s"))
}
