package types

import "time"

// RoomConfig holds per-room runtime configuration. Keep this struct stable
// and backward-compatible; it is shared via the config file and flags.
type RoomConfig struct {
	Name             string
	TickRate         int           // simulation frames per second
	SnapshotInterval time.Duration // host state broadcast cadence
	InputInterval    time.Duration // client input upload cadence
	ElectionTimeout  time.Duration // wait for a host claim before self-electing
	MaxFrameDelta    float64       // seconds of simulated time a frame may integrate
}

// DefaultRoomConfig returns the tuning used when no config file overrides it.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		Name:             "room",
		TickRate:         60,
		SnapshotInterval: 50 * time.Millisecond,
		InputInterval:    33 * time.Millisecond,
		ElectionTimeout:  2200 * time.Millisecond,
		MaxFrameDelta:    0.08,
	}
}

// Sanitized floors each field to a workable minimum so a partial config file
// can never stall the loop.
func (c RoomConfig) Sanitized() RoomConfig {
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	c.SnapshotInterval = maxDur(c.SnapshotInterval, 20*time.Millisecond)
	c.InputInterval = maxDur(c.InputInterval, 10*time.Millisecond)
	c.ElectionTimeout = maxDur(c.ElectionTimeout, 500*time.Millisecond)
	if c.MaxFrameDelta <= 0 {
		c.MaxFrameDelta = 0.08
	}
	return c
}

func maxDur(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
