package testing

import "sync/atomic"

// ManualClock is a storage.Clock that only moves when told to.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock returns a clock standing at start (epoch seconds).
func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) Now() int64 {
	return c.now.Load()
}

// Advance moves the clock by sec seconds. Negative values move it back.
func (c *ManualClock) Advance(sec int64) {
	c.now.Add(sec)
}

// Set moves the clock to an absolute epoch second.
func (c *ManualClock) Set(now int64) {
	c.now.Store(now)
}
