package state

import "strings"

// State identifies one of the fixed exhibition modes.
//
// The zero-value semantics are carried by StateNone: it is the sentinel an
// unparseable wire token maps to and is never a valid target for the
// coordinator. The five real states are returned by States().
type State string

// State constants.
const (
	StateNone       State = "none"
	StateStandby    State = "standby"
	StateArrival    State = "arrival"
	StateAlert      State = "alert"
	StateAdaptive   State = "adaptive"
	StateConnection State = "connection"
)

// States returns the five selectable exhibition states, in display order.
// StateNone is deliberately excluded; it exists only as a parse sentinel.
func States() []State {
	return []State{
		StateStandby, StateArrival, StateAlert, StateAdaptive, StateConnection,
	}
}

// ParseState converts a raw token into a State.
//
// Matching is case-insensitive and surrounding whitespace is ignored.
// Unrecognised tokens map to StateNone rather than propagating the raw
// string — this is the single conversion boundary between wire tokens and
// the closed enum.
func ParseState(token string) State {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "standby":
		return StateStandby
	case "arrival":
		return StateArrival
	case "alert":
		return StateAlert
	case "adaptive":
		return StateAdaptive
	case "connection":
		return StateConnection
	default:
		return StateNone
	}
}

// Valid reports whether s is one of the five selectable states.
func (s State) Valid() bool {
	switch s {
	case StateStandby, StateArrival, StateAlert, StateAdaptive, StateConnection:
		return true
	default:
		return false
	}
}

// String returns the lowercase wire token for the state.
func (s State) String() string {
	return string(s)
}

// RGB is a color with channels in the normalized [0,1] range, as consumed
// by the visual engine's fragment computation.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// VisualParams is the six-field parameter set driving the procedural
// background for one state. All fields interpolate independently during a
// transition.
type VisualParams struct {
	Primary    RGB     `json:"primary"`
	Secondary  RGB     `json:"secondary"`
	Speed      float64 `json:"speed"`
	Intensity  float64 `json:"intensity"`
	NoiseScale float64 `json:"noise_scale"`
	Distortion float64 `json:"distortion"`
}

// RGBW is a physical strip color, each channel an integer in [0,255].
type RGBW struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	W int `json:"w"`
}

// ClampChannel clamps a channel value into the [0,255] range.
// Out-of-range wire input is clamped, never rejected.
func ClampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Clamp returns a copy of c with every channel clamped into [0,255].
func (c RGBW) Clamp() RGBW {
	return RGBW{
		R: ClampChannel(c.R),
		G: ClampChannel(c.G),
		B: ClampChannel(c.B),
		W: ClampChannel(c.W),
	}
}
