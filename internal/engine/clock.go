package engine

import "sync/atomic"

// Clock is a monotonic logical clock used to stamp rule firings.
//
// Firings are ordered by seq, never by wall-clock time, so the same rule set
// applied to the same tree always yields the same trace.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
