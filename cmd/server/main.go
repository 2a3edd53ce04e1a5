package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pathglyph/pathglyph/internal/core/config"
	"github.com/pathglyph/pathglyph/internal/core/events/bus"
	"github.com/pathglyph/pathglyph/internal/core/observability/log"
	"github.com/pathglyph/pathglyph/internal/core/sim"
	"github.com/pathglyph/pathglyph/internal/core/world"
	"github.com/pathglyph/pathglyph/internal/server"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "scenario file (.yaml or .json); empty starts a blank 50x50 grid")
		listenAddr   = flag.String("addr", "127.0.0.1:8080", "websocket listen address")
		tick         = flag.Duration("tick", 50*time.Millisecond, "simulation tick interval")
		debug        = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := log.LevelInfo
	if *debug {
		level = log.LevelDebug
	}
	logger := log.New(level)

	simulation, err := buildSimulation(*scenarioPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading scenario:", err)
		os.Exit(1)
	}

	cfg := server.DefaultConfig()
	cfg.ListenAddr = *listenAddr
	cfg.TickInterval = *tick
	cfg.LogLevel = level

	srv := server.New(cfg, simulation, sharedBus, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-stopCh
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		os.Exit(1)
	}
}

// sharedBus carries core events from the simulation to the server, which
// forwards them to connected clients.
var sharedBus = bus.New()

func buildSimulation(path string, logger log.Log) (*sim.Simulation, error) {
	if path == "" {
		env := world.NewEnvironment(world.DefaultWidth, world.DefaultHeight)
		return sim.New(env, sim.DefaultOptions(), logger, sharedBus, nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var scenario *config.Scenario
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		scenario, err = config.LoadYAML(f)
	default:
		scenario, err = config.LoadJSON(f)
	}
	if err != nil {
		return nil, err
	}

	env := scenario.Apply()
	seed := scenario.SamplerSeed()
	rng := rand.New(rand.NewPCG(seed, seed))
	logger.Info("scenario loaded",
		log.String("name", scenario.Name),
		log.Int("width", env.Width()),
		log.Int("height", env.Height()),
		log.Uint64("sampler_seed", seed))

	return sim.New(env, scenario.Options(), logger, sharedBus, rng), nil
}
