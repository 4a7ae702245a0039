// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Worker    WorkerConfig    `yaml:"worker"`
	Brush     BrushConfig     `yaml:"brush"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	CellScale int `yaml:"cell_scale"` // window pixels per grid cell
}

// GridConfig holds the simulated grid and its partitioning.
type GridConfig struct {
	Width      int `yaml:"width"`  // cells (0 = screen width / cell scale)
	Height     int `yaml:"height"` // cells (0 = screen height / cell scale)
	WorkerRows int `yaml:"worker_rows"`
	WorkerCols int `yaml:"worker_cols"`
}

// WorkerConfig holds per-partition scheduling parameters.
type WorkerConfig struct {
	TickMS            int `yaml:"tick_ms"`
	LockTimeoutMS     int `yaml:"lock_timeout_ms"`
	InboxCapacity     int `yaml:"inbox_capacity"`     // packets buffered per worker
	PlacementCapacity int `yaml:"placement_capacity"` // user placements buffered per worker
	MaxRelayHops      int `yaml:"max_relay_hops"`     // relays before a packet only waits to land
}

// BrushConfig holds viewer painting defaults.
type BrushConfig struct {
	Radius          int    `yaml:"radius"`
	MaxRadius       int    `yaml:"max_radius"`
	DefaultMaterial string `yaml:"default_material"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindowSec  float64 `yaml:"stats_window_sec"`  // seconds per aggregated window
	PerfWindowTicks int     `yaml:"perf_window_ticks"` // rolling window of tick timings per worker
	OutputDir       string  `yaml:"output_dir"`        // empty disables CSV output
}

// StreamConfig holds the websocket frame streamer settings.
type StreamConfig struct {
	Addr    string `yaml:"addr"`
	FrameMS int    `yaml:"frame_ms"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TickInterval  time.Duration
	LockTimeout   time.Duration
	FrameInterval time.Duration
	StatsWindow   time.Duration
	GridW, GridH  int // effective grid size in cells
	PartitionW    int
	PartitionH    int
	ScreenW32     float32
	ScreenH32     float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Grid.WorkerRows < 1 || c.Grid.WorkerCols < 1:
		return fmt.Errorf("grid: worker_rows and worker_cols must be positive, got %dx%d", c.Grid.WorkerRows, c.Grid.WorkerCols)
	case c.Grid.Width < 0 || c.Grid.Height < 0:
		return fmt.Errorf("grid: negative size %dx%d", c.Grid.Width, c.Grid.Height)
	case c.Screen.CellScale < 1:
		return fmt.Errorf("screen: cell_scale must be at least 1, got %d", c.Screen.CellScale)
	case c.Worker.TickMS < 1:
		return fmt.Errorf("worker: tick_ms must be positive, got %d", c.Worker.TickMS)
	case c.Worker.InboxCapacity < 1 || c.Worker.PlacementCapacity < 1:
		return fmt.Errorf("worker: inbox and placement capacities must be positive")
	}
	return nil
}

// Refresh validates the config and recomputes derived values after fields
// were changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TickInterval = time.Duration(c.Worker.TickMS) * time.Millisecond
	c.Derived.LockTimeout = time.Duration(c.Worker.LockTimeoutMS) * time.Millisecond
	c.Derived.FrameInterval = time.Duration(c.Stream.FrameMS) * time.Millisecond
	c.Derived.StatsWindow = time.Duration(c.Telemetry.StatsWindowSec * float64(time.Second))
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// Grid defaults to the window size in cells
	gw, gh := c.Grid.Width, c.Grid.Height
	if gw == 0 {
		gw = c.Screen.Width / c.Screen.CellScale
	}
	if gh == 0 {
		gh = c.Screen.Height / c.Screen.CellScale
	}
	c.Derived.GridW, c.Derived.GridH = gw, gh
	c.Derived.PartitionW = gw / c.Grid.WorkerCols
	c.Derived.PartitionH = gh / c.Grid.WorkerRows
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
