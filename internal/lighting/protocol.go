package lighting

import (
	"fmt"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// EncodeCommand builds one protocol line: "state,R,G,B,W\n".
//
// The state token is the lowercase canonical name; channels are clamped
// into [0,255] before formatting so the wire never carries out-of-range
// values even if a caller hands in an unclamped color.
func EncodeCommand(s state.State, c state.RGBW) []byte {
	c = c.Clamp()
	return fmt.Appendf(nil, "%s,%d,%d,%d,%d\n", s, c.R, c.G, c.B, c.W)
}
