// Package strip implements the device side of the LED strip link: the
// controller that would run next to the strip hardware, consuming the line
// protocol and driving the pixels.
//
// # Protocol
//
// One command per line, newline-terminated ASCII:
//
//	STATE,R,G,B,W\n
//
// The state token is matched case-insensitively against the closed state
// enum; anything unrecognised maps to the "none" sentinel. The numeric
// tokens are parsed and clamped to [0,255] for protocol compatibility but
// the applied color always comes from the device-local palette — the
// device, not the wire, is the source of truth for what each state looks
// like. Valid lines are acknowledged with "OK <state> R,G,B,W" carrying the
// values actually applied; malformed lines (wrong field count, non-numeric
// channel) get an "ERR ..." diagnostic and leave the strip untouched.
//
// # Transitions
//
// The first color ever applied, and any transition into "none", is an
// instantaneous snap. Every other state change performs exactly one
// positional wipe: each pixel in order 0..N-1 is set to the target and the
// strip flushed, with a fixed per-step delay. The wipe is intentionally
// blocking — commands arriving mid-wipe queue in the transport buffer and
// are processed afterwards, in arrival order. A repeated command for the
// current state is acknowledged but performs no second wipe (configurable
// via ResnapOnRepeat).
//
// # Pulsing
//
// Once settled in a non-standby state the controller periodically scales
// the base color by a sinusoidal brightness factor between a per-state
// minimum and maximum. Pulsing polls well below 50 Hz, never runs during a
// wipe or in standby, and always modulates the base color, not the last
// flushed frame, so the oscillation cannot drift.
package strip
