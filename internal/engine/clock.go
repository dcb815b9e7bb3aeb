package engine

import "sync/atomic"

// Clock is a monotonic counter used to stamp describe requests within one
// resolution. Batch keys take the form "<resolution-id>/<seq>", so two
// requests issued by the same top-level call never share a key, even
// across nested templates (the clock is shared by child contexts).
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
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
