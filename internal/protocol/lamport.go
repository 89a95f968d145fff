package protocol

import "sync/atomic"

// Clock is a Lamport logical clock used to stamp outbound messages so peers
// can reason about relative ordering in logs and traces.
type Clock struct{ v atomic.Uint64 }

func (c *Clock) Now() uint64 { return c.v.Load() }

// Tick advances the clock for a local event and returns the new stamp.
func (c *Clock) Tick() uint64 { return c.v.Add(1) }

// Observe folds in a remote stamp, keeping the clock ahead of everything seen.
func (c *Clock) Observe(remote uint64) uint64 {
	for {
		cur := c.v.Load()
		next := cur + 1
		if remote >= cur {
			next = remote + 1
		}
		if c.v.CompareAndSwap(cur, next) {
			return next
		}
	}
}
