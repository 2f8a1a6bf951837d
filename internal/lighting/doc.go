// Package lighting implements the host side of the LED strip link.
//
// A Sender owns a serial Transport and translates state changes into the
// line protocol consumed by the strip controller:
//
//	state,R,G,B,W\n
//
// Delivery is either an immediate send or a timed software fade: a
// repeating timer performs one write per tick, easing each channel with the
// same quintic curve the visual engine uses, and the final tick always
// re-sends the exact target so rounding drift can never accumulate.
//
// The Sender is deliberately forgiving on the control path: SetState while
// disconnected remembers the requested state and returns nil, and Connect
// pushes that pending state as soon as the link is up. Write failures are
// the opposite — any failed write, including one in the middle of a fade,
// cancels the fade and drops the Sender to disconnected. There is no silent
// retry; the next successful SetState corrects the strip.
//
// Thread Safety: all exported methods are safe for concurrent use. At most
// one fade timer exists at a time; starting a new fade or disconnecting
// cancels the previous one before the first competing write can happen.
package lighting
