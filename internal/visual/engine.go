package visual

import (
	"sync"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// DefaultTransitionDuration is how long a full parameter transition takes.
// Installations have shipped with values between 3.5s and 11s; this is the
// single knob, never hard-coded per call site.
const DefaultTransitionDuration = 7 * time.Second

// transition is the engine's single in-flight interpolation.
// It is created on every state change and discarded once progress
// reaches 1.0.
type transition struct {
	start     state.VisualParams
	target    state.VisualParams
	startedAt time.Time
}

// Engine interpolates VisualParams over time as the installation moves
// between states.
//
// The engine holds at most one active transition. A state change while a
// transition is in flight captures the currently interpolated values as the
// new start, never the original start or the abandoned target.
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	clock    Clock
	duration time.Duration

	mu        sync.Mutex
	current   state.State
	displayed state.VisualParams
	trans     *transition
}

// NewEngine creates an engine resting at the parameters of the initial
// state.
//
// Parameters:
//   - clock: Time source (SystemClock{} in production, manual in tests)
//   - duration: Transition length; <= 0 selects DefaultTransitionDuration
//   - initial: Starting state (its params are displayed immediately)
func NewEngine(clock Clock, duration time.Duration, initial state.State) *Engine {
	if duration <= 0 {
		duration = DefaultTransitionDuration
	}
	return &Engine{
		clock:     clock,
		duration:  duration,
		current:   initial,
		displayed: state.Visual(initial),
	}
}

// SetState begins easing toward the parameters of s.
//
// Identical consecutive states are a no-op. If a transition is already in
// flight, the new transition starts from the values displayed at this
// instant, guaranteeing no visible discontinuity.
func (e *Engine) SetState(s state.State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s == e.current {
		return
	}

	now := e.clock.Now()
	e.trans = &transition{
		start:     e.paramsAtLocked(now),
		target:    state.Visual(s),
		startedAt: now,
	}
	e.current = s
}

// State returns the state the engine is currently showing or easing toward.
func (e *Engine) State() state.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Transitioning reports whether an interpolation is still in flight.
func (e *Engine) Transitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trans == nil {
		return false
	}
	return e.clock.Now().Sub(e.trans.startedAt) < e.duration
}

// Params returns the interpolated parameter set for the current instant.
//
// Once a transition's progress reaches 1.0 it is discarded and the target
// becomes the resting displayed value.
func (e *Engine) Params() state.VisualParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paramsAtLocked(e.clock.Now())
}

// paramsAtLocked computes the displayed params at time now.
// Caller must hold e.mu.
func (e *Engine) paramsAtLocked(now time.Time) state.VisualParams {
	if e.trans == nil {
		return e.displayed
	}

	progress := float64(now.Sub(e.trans.startedAt)) / float64(e.duration)
	if progress >= 1 {
		e.displayed = e.trans.target
		e.trans = nil
		return e.displayed
	}
	if progress < 0 {
		progress = 0
	}

	return interpolate(e.trans.start, e.trans.target, progress)
}

// interpolate blends every field of the parameter set independently.
// Motion fields use the quintic curve, color channels the quartic one.
func interpolate(a, b state.VisualParams, progress float64) state.VisualParams {
	mt := QuinticInOut(progress)
	ct := QuarticInOut(progress)

	return state.VisualParams{
		Primary: state.RGB{
			R: Lerp(a.Primary.R, b.Primary.R, ct),
			G: Lerp(a.Primary.G, b.Primary.G, ct),
			B: Lerp(a.Primary.B, b.Primary.B, ct),
		},
		Secondary: state.RGB{
			R: Lerp(a.Secondary.R, b.Secondary.R, ct),
			G: Lerp(a.Secondary.G, b.Secondary.G, ct),
			B: Lerp(a.Secondary.B, b.Secondary.B, ct),
		},
		Speed:      Lerp(a.Speed, b.Speed, mt),
		Intensity:  Lerp(a.Intensity, b.Intensity, mt),
		NoiseScale: Lerp(a.NoiseScale, b.NoiseScale, mt),
		Distortion: Lerp(a.Distortion, b.Distortion, mt),
	}
}
