package visual

import "time"

// Clock supplies the engine's notion of "now".
//
// Production code uses SystemClock; tests inject a manual clock so
// transition progress can be stepped deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
