// Command sandserve runs the engine without a window and streams the grid to
// WebSocket clients, accepting brush commands back.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	terrain := flag.Bool("terrain", false, "Start from a generated terrain instead of an empty grid")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *addr != "" {
		cfg.Stream.Addr = *addr
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(cfg, rngSeed, logger)
	if *terrain {
		logger.Info("terrain queued", "placements", eng.SeedTerrain(rngSeed))
	}
	eng.Start(ctx)
	defer eng.Stop()

	srv := newServer(eng, cfg, logger)
	go srv.broadcastLoop(ctx)

	httpSrv := &http.Server{Addr: cfg.Stream.Addr, Handler: srv.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", cfg.Stream.Addr, "seed", rngSeed)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
