package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics across all workers for a time window.
type WindowStats struct {
	Window     int     `csv:"window"`
	ElapsedSec float64 `csv:"elapsed_sec"`
	Workers    int     `csv:"workers"`

	// Event totals during the window
	Ticks            int64 `csv:"ticks"`
	Moves            int64 `csv:"moves"`
	HandoffsSent     int64 `csv:"handoffs_sent"`
	HandoffsRejected int64 `csv:"handoffs_rejected"`
	Landed           int64 `csv:"landed"`
	Relayed          int64 `csv:"relayed"`
	Retained         int64 `csv:"retained"`
	Deferred         int64 `csv:"deferred"`
	Placements       int64 `csv:"placements"`

	// Per-worker tick rate (ticks per wall-clock second)
	TickRateMean float64 `csv:"tick_rate_mean"`
	TickRateStd  float64 `csv:"tick_rate_std"`

	// Distribution of per-worker average tick compute time
	TickUSMean float64 `csv:"tick_us_mean"`
	TickUSP50  float64 `csv:"tick_us_p50"`
	TickUSP90  float64 `csv:"tick_us_p90"`
	TickUSMax  float64 `csv:"tick_us_max"`

	// Busiest worker's moves relative to the mean (1 = balanced)
	MoveImbalance float64 `csv:"move_imbalance"`
}

// Summary holds mean, spread and quantiles of a sample.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Summarize computes a Summary. Returns the zero value for an empty slice.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Mean: stat.Mean(sorted, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Max:  floats.Max(sorted),
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window", s.Window),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Int("workers", s.Workers),
		slog.Int64("ticks", s.Ticks),
		slog.Int64("moves", s.Moves),
		slog.Int64("handoffs_sent", s.HandoffsSent),
		slog.Int64("handoffs_rejected", s.HandoffsRejected),
		slog.Int64("landed", s.Landed),
		slog.Int64("relayed", s.Relayed),
		slog.Int64("retained", s.Retained),
		slog.Int64("deferred", s.Deferred),
		slog.Int64("placements", s.Placements),
		slog.Float64("tick_rate_mean", s.TickRateMean),
		slog.Float64("tick_rate_std", s.TickRateStd),
		slog.Float64("tick_us_mean", s.TickUSMean),
		slog.Float64("tick_us_p90", s.TickUSP90),
		slog.Float64("move_imbalance", s.MoveImbalance),
	)
}

// LogStats logs the window stats.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("window",
		"window", s.Window,
		"ticks", s.Ticks,
		"moves", s.Moves,
		"handoffs", s.HandoffsSent,
		"landed", s.Landed,
		"relayed", s.Relayed,
		"retained", s.Retained,
		"deferred", s.Deferred,
		"tick_rate", s.TickRateMean,
		"tick_us_p90", s.TickUSP90,
		"imbalance", s.MoveImbalance,
	)
}
