package feed

import "sync/atomic"

// Counters are best-effort operational metrics for the pipeline. They are
// observability signals only, never used for control flow.
type Counters struct {
	Received           atomic.Uint64
	ConversionFailures atomic.Uint64
	Incomplete         atomic.Uint64
	NoSubscribers      atomic.Uint64
	ResolutionFailures atomic.Uint64
	Enqueued           atomic.Uint64
	Connects           atomic.Uint64
	ConnectFailures    atomic.Uint64
	StreamFailures     atomic.Uint64
}

// Snapshot is a point-in-time copy for logging.
type Snapshot struct {
	Received           uint64
	ConversionFailures uint64
	Incomplete         uint64
	NoSubscribers      uint64
	ResolutionFailures uint64
	Enqueued           uint64
	Connects           uint64
	ConnectFailures    uint64
	StreamFailures     uint64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Received:           c.Received.Load(),
		ConversionFailures: c.ConversionFailures.Load(),
		Incomplete:         c.Incomplete.Load(),
		NoSubscribers:      c.NoSubscribers.Load(),
		ResolutionFailures: c.ResolutionFailures.Load(),
		Enqueued:           c.Enqueued.Load(),
		Connects:           c.Connects.Load(),
		ConnectFailures:    c.ConnectFailures.Load(),
		StreamFailures:     c.StreamFailures.Load(),
	}
}
