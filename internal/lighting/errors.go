package lighting

import "errors"

// Domain errors for the lighting package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, lighting.ErrConnectionFailed) {
//	    // transport unavailable or declined
//	}
var (
	// ErrConnectionFailed is returned when the serial transport cannot be
	// acquired. This is the distinguishable connection error the
	// coordinator reports to callers; no automatic retry is attempted.
	ErrConnectionFailed = errors.New("lighting: connection failed")

	// ErrNotConnected is returned by operations that require an open link.
	ErrNotConnected = errors.New("lighting: not connected")

	// ErrWriteFailed is returned when a line could not be written to the
	// transport. The Sender treats this as a disconnect.
	ErrWriteFailed = errors.New("lighting: write failed")

	// ErrInvalidState is returned when SetState is called with a state
	// outside the closed enum.
	ErrInvalidState = errors.New("lighting: invalid state")
)
