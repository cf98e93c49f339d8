package expiry

import "time"

// Clock supplies the current wall-clock instant. The resolver reads it at
// most once per call so composed conversions agree on a single "now".
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock frozen at a single instant, for deterministic tests
// and replay scenarios.
type FixedClock struct {
	Instant time.Time
}

func (f FixedClock) Now() time.Time { return f.Instant }
