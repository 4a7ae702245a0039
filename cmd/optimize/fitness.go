package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/sandfall/config"
	"github.com/pthm-cable/sandfall/engine"
	"github.com/pthm-cable/sandfall/telemetry"
)

// lostParticlePenalty is the fitness of a run that failed to conserve
// particles. Any conserving run scores far below it.
const lostParticlePenalty = 1e9

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []uint64
	configPath string
	log        *slog.Logger

	mu          sync.Mutex
	lastSummary runResult // mean over seeds of the most recent Evaluate call
}

// runResult holds the measurements from a single simulation run.
type runResult struct {
	criticalUS float64 // slowest worker's mean tick time
	tickUSP90  float64 // 90th percentile of worker tick times
	retained   float64 // packets held for a retry, per handoff
	conserved  bool
}

// NewFitnessEvaluator creates a new evaluator. Each run loads a fresh copy of
// the config at configPath.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []uint64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		configPath: configPath,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastSummary returns the seed-averaged measurements of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() (criticalUS, retained float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary.criticalUS, fe.lastSummary.retained
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the critical-path tick time in microseconds, inflated by the
// share of handoffs that had to wait for a retry.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Seeds run in parallel; each has its own engine and config copy.
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var mean runResult
	for _, r := range results {
		total += fitness(r)
		mean.criticalUS += r.criticalUS / float64(len(results))
		mean.retained += r.retained / float64(len(results))
	}

	fe.mu.Lock()
	fe.lastSummary = mean
	fe.mu.Unlock()

	return total / float64(len(fe.seeds))
}

func fitness(r runResult) float64 {
	if !r.conserved {
		return lostParticlePenalty
	}
	return r.criticalUS * (1 + r.retained)
}

// runSimulation executes a single headless run of the demo scene.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) runResult {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return runResult{}
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return runResult{}
	}
	// Timing windows cover the whole run.
	cfg.Telemetry.PerfWindowTicks = fe.ticks

	eng := engine.New(cfg, seed, fe.log)
	eng.SeedDemo()
	eng.Step()
	placed := eng.Census().Particles()

	for i := 1; i < fe.ticks; i++ {
		eng.Step()
	}

	samples := eng.Samples()
	return summarize(samples, placed == eng.Census().Particles())
}

// summarize reduces per-worker samples to the run's measurements.
func summarize(samples []telemetry.WorkerSample, conserved bool) runResult {
	tickUS := make([]float64, 0, len(samples))
	var sent, retained int64
	for _, s := range samples {
		tickUS = append(tickUS, float64(s.Perf.AvgTickDuration.Microseconds()))
		sent += s.Counters.HandoffsSent
		retained += s.Counters.Retained
	}
	sum := telemetry.Summarize(tickUS)

	r := runResult{criticalUS: sum.Max, tickUSP90: sum.P90, conserved: conserved}
	if sent > 0 {
		r.retained = float64(retained) / float64(sent)
	}
	if math.IsNaN(r.criticalUS) {
		r.criticalUS = 0
	}
	return r
}
