package telemetry

import "time"

// WorkerSample is one worker's state at the end of a window.
type WorkerSample struct {
	ID       string
	Counters CounterSnapshot
	Perf     PerfStats
}

// Collector turns cumulative worker counters into per-window deltas.
type Collector struct {
	window      time.Duration
	windowStart time.Time
	index       int
	last        map[string]CounterSnapshot
}

// NewCollector creates a collector whose first window starts at now.
func NewCollector(window time.Duration, now time.Time) *Collector {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Collector{
		window:      window,
		windowStart: now,
		last:        make(map[string]CounterSnapshot),
	}
}

// ShouldFlush returns true once the current window has elapsed.
func (c *Collector) ShouldFlush(now time.Time) bool {
	return now.Sub(c.windowStart) >= c.window
}

// Flush produces WindowStats for the window ending at now and starts the next one.
func (c *Collector) Flush(now time.Time, samples []WorkerSample) WindowStats {
	elapsed := now.Sub(c.windowStart).Seconds()
	stats := WindowStats{
		Window:     c.index,
		ElapsedSec: elapsed,
		Workers:    len(samples),
	}

	var total CounterSnapshot
	rates := make([]float64, 0, len(samples))
	tickUS := make([]float64, 0, len(samples))
	moves := make([]float64, 0, len(samples))
	for _, s := range samples {
		delta := s.Counters.Sub(c.last[s.ID])
		c.last[s.ID] = s.Counters
		total = total.Add(delta)

		if elapsed > 0 {
			rates = append(rates, float64(delta.Ticks)/elapsed)
		}
		tickUS = append(tickUS, float64(s.Perf.AvgTickDuration.Microseconds()))
		moves = append(moves, float64(delta.Moves))
	}

	stats.Ticks = total.Ticks
	stats.Moves = total.Moves
	stats.HandoffsSent = total.HandoffsSent
	stats.HandoffsRejected = total.HandoffsRejected
	stats.Landed = total.Landed
	stats.Relayed = total.Relayed
	stats.Retained = total.Retained
	stats.Deferred = total.Deferred
	stats.Placements = total.Placements

	rate := Summarize(rates)
	stats.TickRateMean, stats.TickRateStd = rate.Mean, rate.Std

	tick := Summarize(tickUS)
	stats.TickUSMean, stats.TickUSP50, stats.TickUSP90, stats.TickUSMax = tick.Mean, tick.P50, tick.P90, tick.Max

	if m := Summarize(moves); m.Mean > 0 {
		stats.MoveImbalance = m.Max / m.Mean
	}

	c.windowStart = now
	c.index++
	return stats
}

// Window returns the configured window length.
func (c *Collector) Window() time.Duration {
	return c.window
}
