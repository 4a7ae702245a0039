package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/sandfall/material"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// glyphs encode one material per character in Snapshot.Rows.
var glyphs = map[material.Material]byte{
	material.Empty: '.',
	material.Sand:  's',
	material.Water: 'w',
	material.Wood:  '#',
	material.Ice:   'i',
	material.Steam: '~',
}

// Snapshot holds the material layout of the whole grid at one tick. Element
// state other than the material is not kept; restored cells start fresh.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`
	Tick    int64  `json:"tick"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`

	// One string per grid row, one glyph per cell
	Rows []string `json:"rows"`

	Census map[string]int `json:"census,omitempty"`
}

// NewSnapshot returns an all-Empty snapshot of the given size.
func NewSnapshot(w, h int) *Snapshot {
	s := &Snapshot{Version: SnapshotVersion, Width: w, Height: h, Rows: make([]string, h)}
	row := strings.Repeat(string(glyphs[material.Empty]), w)
	for y := range s.Rows {
		s.Rows[y] = row
	}
	return s
}

// Encode sets the rows from a cell accessor.
func (s *Snapshot) Encode(at func(x, y int) material.Material) {
	buf := make([]byte, s.Width)
	s.Census = make(map[string]int)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			m := at(x, y)
			g, ok := glyphs[m]
			if !ok {
				m, g = material.Empty, glyphs[material.Empty]
			}
			buf[x] = g
			if m != material.Empty {
				s.Census[m.String()]++
			}
		}
		s.Rows[y] = string(buf)
	}
}

// At decodes the material at (x, y). Unknown glyphs and coordinates outside
// the snapshot read as Empty.
func (s *Snapshot) At(x, y int) material.Material {
	if y < 0 || y >= len(s.Rows) || x < 0 || x >= len(s.Rows[y]) {
		return material.Empty
	}
	g := s.Rows[y][x]
	for m, mg := range glyphs {
		if mg == g {
			return m
		}
	}
	return material.Empty
}

// Validate checks that the rows match the declared size.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if len(s.Rows) != s.Height {
		return fmt.Errorf("snapshot has %d rows, header says %d", len(s.Rows), s.Height)
	}
	for y, r := range s.Rows {
		if len(r) != s.Width {
			return fmt.Errorf("snapshot row %d has %d cells, want %d", y, len(r), s.Width)
		}
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
