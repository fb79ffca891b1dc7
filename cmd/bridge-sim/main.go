// Command bridge-sim drives the single-lane bridge simulator to
// completion on top of the cothread runtime: it loads a configuration,
// spawns one car actor per configured vehicle plus the signal auxiliary
// actor, joins every car, then dumps metrics and a JSON summary.
//
// Generalized from original_source/main.c's create-all/join-all/teardown
// shape: "N generic worker threads" there becomes "N car actors + 1
// signal actor" here.
package main

import (
	"fmt"
	"os"

	"github.com/corebridge/corebridge/bridge"
	"github.com/corebridge/corebridge/cothread"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := "bridge-sim.properties"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := bridge.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	total := cfg.Left.Total() + cfg.Right.Total()

	logger := cothread.NewStumpyLogger(os.Stderr)
	rec := bridge.NewRecorder(os.Stdout, logger)

	if total == 0 {
		rec.Banner("bridge-sim: configuration admits zero vehicles, nothing to do")
		return 0
	}

	rt := cothread.Init(cfg.Scheduling, logger)
	metrics := bridge.NewMetrics()
	arb := bridge.NewArbiter(rt, cfg, rec, metrics)

	rec.Banner(fmt.Sprintf("bridge-sim: flow=%s scheduling=%v left=%+v right=%+v", cfg.Flow, cfg.Scheduling, cfg.Left, cfg.Right))

	signalID, err := arb.SpawnSignalActor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "spawn signal actor: %v\n", err)
		return 1
	}

	ids := make([]uint64, 0, total)
	ids = append(ids, spawnAll(arb, bridge.Left, cfg.Left)...)
	ids = append(ids, spawnAll(arb, bridge.Right, cfg.Right)...)

	for _, id := range ids {
		if _, err := rt.Join(id); err != nil {
			fmt.Fprintf(os.Stderr, "join car %d: %v\n", id, err)
			return 1
		}
	}
	if _, err := rt.Join(signalID); err != nil {
		fmt.Fprintf(os.Stderr, "join signal actor: %v\n", err)
		return 1
	}

	dump, err := metrics.Dump()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dump metrics: %v\n", err)
	} else {
		fmt.Fprint(os.Stderr, dump)
	}

	summary := bridge.RunSummary{
		Flow:       cfg.Flow.String(),
		Scheduling: fmt.Sprint(cfg.Scheduling),
		Left:       cfg.Left,
		Right:      cfg.Right,
		Metrics:    metrics.Snapshot(),
		Clean:      true,
	}
	payload, err := bridge.MarshalSummary(summary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal summary: %v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stdout, string(payload))

	rt.Shutdown()
	return 0
}

func spawnAll(arb *bridge.Arbiter, dir bridge.Direction, counts bridge.VehicleCounts) []uint64 {
	ids := make([]uint64, 0, counts.Total())
	spawn := func(n int, typ bridge.CarType) {
		for i := 0; i < n; i++ {
			id, err := arb.SpawnCar(dir, typ)
			if err != nil {
				fmt.Fprintf(os.Stderr, "spawn car: %v\n", err)
				continue
			}
			ids = append(ids, id)
		}
	}
	spawn(counts.Normal, bridge.Normal)
	spawn(counts.Sport, bridge.Sport)
	spawn(counts.Emergency, bridge.Emergency)
	return ids
}
