package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/game"
	"github.com/pthm-cable/sandfall/material"
	"github.com/pthm-cable/sandfall/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (overrides config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (headless: 0 = 1000)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	loadPath := flag.String("load", "", "Snapshot file to start from (headless)")
	snapshotDir := flag.String("snapshot", "", "Directory to write the final grid snapshot (headless)")
	scene := flag.String("scene", "demo", "Starting scene: demo, terrain, or empty")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	eng := engine.New(cfg, rngSeed, logger)
	eng.SetOutput(output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		if err := runHeadless(ctx, eng, rngSeed, *maxTicks, *scene, *loadPath, *snapshotDir); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Sandfall")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := game.NewGame(ctx, eng, cfg, logger)
	defer g.Unload()

	if n, err := seedScene(eng, *scene, rngSeed); err != nil {
		slog.Error("invalid scene", "error", err)
	} else {
		slog.Info("scene queued", "scene", *scene, "placements", n)
	}

	slog.Info("starting simulation", "seed", rngSeed, "workers", len(eng.Workers()))
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()
	}
}

// seedScene queues the named starting scene.
func seedScene(eng *engine.Engine, scene string, seed uint64) (int, error) {
	switch scene {
	case "demo":
		return eng.SeedDemo(), nil
	case "terrain":
		return eng.SeedTerrain(seed), nil
	case "", "empty":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown scene %q", scene)
	}
}

// runHeadless ticks the engine synchronously, logging a census and flushing
// telemetry once per stats window worth of ticks.
func runHeadless(ctx context.Context, eng *engine.Engine, seed uint64, maxTicks int, scene, loadPath, snapshotDir string) error {
	if maxTicks <= 0 {
		maxTicks = 1000
	}

	if loadPath != "" {
		snap, err := telemetry.LoadSnapshot(loadPath)
		if err != nil {
			return err
		}
		if err := eng.Restore(snap); err != nil {
			return err
		}
	} else {
		n, err := seedScene(eng, scene, seed)
		if err != nil {
			return err
		}
		slog.Info("scene queued", "scene", scene, "placements", n)
	}

	cfg := config.Cfg()
	ticksPerWindow := max(int(cfg.Derived.StatsWindow/cfg.Derived.TickInterval), 1)

	slog.Info("starting headless simulation", "seed", seed, "max_ticks", maxTicks, "ticks_per_window", ticksPerWindow)
	eng.FlushTelemetry()

	for tick := 1; tick <= maxTicks; tick++ {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", tick)
			break
		}
		eng.Step()
		if tick%ticksPerWindow == 0 {
			eng.FlushTelemetry()
			logCensus(eng, tick)
		}
	}
	eng.FlushTelemetry()
	logCensus(eng, maxTicks)

	if snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(eng.Capture(seed), snapshotDir)
		if err != nil {
			return err
		}
		slog.Info("snapshot saved", "path", path)
	}
	return nil
}

func logCensus(eng *engine.Engine, tick int) {
	c := eng.Census()
	attrs := []any{"tick", tick, "particles", c.Particles(), "in_flight", c.InFlight}
	for _, m := range material.All() {
		if m != material.Empty && c.Counts[m] > 0 {
			attrs = append(attrs, m.String(), c.Counts[m])
		}
	}
	slog.Info("census", attrs...)
}
