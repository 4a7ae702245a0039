// Package main provides CMA-ES tuning of the worker topology and exchange
// parameters for tick throughput.
package main

import (
	"math"

	"github.com/pthm-cable/sandfall/config"
)

// ParamSpec defines a single optimizable parameter. All parameters are
// integers in the config; the search runs on a continuous relaxation.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Topology
			{Name: "worker_rows", Path: "grid.worker_rows", Min: 1, Max: 4, Default: 2},
			{Name: "worker_cols", Path: "grid.worker_cols", Min: 1, Max: 8, Default: 4},
			// Exchange
			{Name: "max_relay_hops", Path: "worker.max_relay_hops", Min: 1, Max: 16, Default: 4},
			{Name: "inbox_capacity", Path: "worker.inbox_capacity", Min: 16, Max: 4096, Default: 1024},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter ranges.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp rounds each value to an integer within its bounds.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Round(min(max(raw[i], spec.Min), spec.Max))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) error {
	clamped := pv.Clamp(raw)
	cfg.Grid.WorkerRows = int(clamped[0])
	cfg.Grid.WorkerCols = int(clamped[1])
	cfg.Worker.MaxRelayHops = int(clamped[2])
	cfg.Worker.InboxCapacity = int(clamped[3])
	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Grid.WorkerRows),
		float64(cfg.Grid.WorkerCols),
		float64(cfg.Worker.MaxRelayHops),
		float64(cfg.Worker.InboxCapacity),
	}
}
