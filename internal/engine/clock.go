package engine

import "sync/atomic"

// Clock is a monotonic counter that numbers executed jobs.
// Results carry the number of the job that produced them, and the same
// number appears in logs, so edits can be followed in the order they ran.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
