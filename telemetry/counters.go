package telemetry

import "sync/atomic"

// Counters are monotonically increasing per-worker event counts. The owning
// worker increments them; any goroutine may take a Snapshot.
type Counters struct {
	Ticks            atomic.Int64
	Moves            atomic.Int64
	HandoffsSent     atomic.Int64
	HandoffsRejected atomic.Int64
	Landed           atomic.Int64
	Relayed          atomic.Int64
	Retained         atomic.Int64
	Deferred         atomic.Int64 // steps skipped because a bounded lock timed out
	Placements       atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Ticks            int64
	Moves            int64
	HandoffsSent     int64
	HandoffsRejected int64
	Landed           int64
	Relayed          int64
	Retained         int64
	Deferred         int64
	Placements       int64
}

// Snapshot reads every counter.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Ticks:            c.Ticks.Load(),
		Moves:            c.Moves.Load(),
		HandoffsSent:     c.HandoffsSent.Load(),
		HandoffsRejected: c.HandoffsRejected.Load(),
		Landed:           c.Landed.Load(),
		Relayed:          c.Relayed.Load(),
		Retained:         c.Retained.Load(),
		Deferred:         c.Deferred.Load(),
		Placements:       c.Placements.Load(),
	}
}

// Sub returns the per-field difference s - prev.
func (s CounterSnapshot) Sub(prev CounterSnapshot) CounterSnapshot {
	return CounterSnapshot{
		Ticks:            s.Ticks - prev.Ticks,
		Moves:            s.Moves - prev.Moves,
		HandoffsSent:     s.HandoffsSent - prev.HandoffsSent,
		HandoffsRejected: s.HandoffsRejected - prev.HandoffsRejected,
		Landed:           s.Landed - prev.Landed,
		Relayed:          s.Relayed - prev.Relayed,
		Retained:         s.Retained - prev.Retained,
		Deferred:         s.Deferred - prev.Deferred,
		Placements:       s.Placements - prev.Placements,
	}
}

// Add returns the per-field sum.
func (s CounterSnapshot) Add(o CounterSnapshot) CounterSnapshot {
	return CounterSnapshot{
		Ticks:            s.Ticks + o.Ticks,
		Moves:            s.Moves + o.Moves,
		HandoffsSent:     s.HandoffsSent + o.HandoffsSent,
		HandoffsRejected: s.HandoffsRejected + o.HandoffsRejected,
		Landed:           s.Landed + o.Landed,
		Relayed:          s.Relayed + o.Relayed,
		Retained:         s.Retained + o.Retained,
		Deferred:         s.Deferred + o.Deferred,
		Placements:       s.Placements + o.Placements,
	}
}
