// Package state defines the exhibition state model for Swirl.
//
// An installation is always in exactly one of five states (standby, arrival,
// alert, adaptive, connection). Each state carries two static, read-only
// parameter tables:
//
//   - VisualParams: the six-field tunable set driving the procedural
//     background (two blend colors, speed, intensity, noise scale,
//     distortion)
//   - RGBW: the target color for the physical LED strip
//
// Both tables are exposed through lookup functions that return value copies,
// so callers can never mutate the canonical entries.
//
// # State names on the wire
//
// State is a closed enumerated type. Raw strings enter the system in exactly
// two places: the serial line protocol and the HTTP/MQTT payloads. Both
// convert through ParseState, which is case-insensitive and maps anything
// unrecognised to StateNone rather than propagating the raw token.
//
// # Derived LED colors
//
// States without a hand-tuned RGBW entry derive one from their VisualParams
// via DeriveRGBW: 30% primary + 70% secondary, a per-channel brightness
// boost so dim theme colors remain visible on the strip, then white
// extraction by minimum-channel subtraction.
package state
