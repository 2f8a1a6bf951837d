package strip

import (
	"math"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// PulseSpec describes the ambient brightness oscillation for one state.
type PulseSpec struct {
	// Min and Max bound the brightness factor applied to the base color.
	Min float64
	Max float64

	// Period is the length of one full oscillation.
	Period time.Duration
}

// pulseTable holds the per-state pulse tuning. Standby deliberately has no
// entry: a resting installation must not breathe.
var pulseTable = map[state.State]PulseSpec{
	state.StateArrival:    {Min: 0.75, Max: 1.0, Period: 4 * time.Second},
	state.StateAlert:      {Min: 0.55, Max: 1.0, Period: 1500 * time.Millisecond},
	state.StateAdaptive:   {Min: 0.85, Max: 1.0, Period: 6 * time.Second},
	state.StateConnection: {Min: 0.8, Max: 1.0, Period: 3 * time.Second},
}

// Pulse returns the pulse tuning for s, or ok=false when the state does not
// pulse (standby, none, unknown).
func Pulse(s state.State) (PulseSpec, bool) {
	spec, ok := pulseTable[s]
	return spec, ok
}

// Factor computes the brightness factor at elapsed time t since the state
// settled. The factor follows a sinusoid between Min and Max, starting at
// Max so the settled color is shown first.
func (p PulseSpec) Factor(t time.Duration) float64 {
	if p.Period <= 0 {
		return p.Max
	}
	phase := 2 * math.Pi * float64(t) / float64(p.Period)
	return p.Min + (p.Max-p.Min)*(0.5+0.5*math.Cos(phase))
}

// scale multiplies every channel of c by factor, clamped to [0,255].
func scale(c state.RGBW, factor float64) state.RGBW {
	mul := func(v int) int {
		return int(math.Round(float64(v) * factor))
	}
	return state.RGBW{R: mul(c.R), G: mul(c.G), B: mul(c.B), W: mul(c.W)}.Clamp()
}
