package infrastructure

import "sync/atomic"

// AtomicIDGenerator hands out frame sequence numbers, safe for concurrent use.
type AtomicIDGenerator struct {
	id atomic.Int64
}

// Generate returns the next sequence number, starting at 1.
func (g *AtomicIDGenerator) Generate() int64 {
	return g.id.Add(1)
}
