package state

import "math"

// visualTable holds the hand-tuned background parameters per state.
//
// Values are only reachable through Visual(), which returns a copy; the
// table itself is never handed out.
var visualTable = map[State]VisualParams{
	StateStandby: {
		Primary:    RGB{R: 0.02, G: 0.08, B: 0.18},
		Secondary:  RGB{R: 0.05, G: 0.22, B: 0.35},
		Speed:      0.12,
		Intensity:  0.35,
		NoiseScale: 2.2,
		Distortion: 0.6,
	},
	StateArrival: {
		Primary:    RGB{R: 0.35, G: 0.16, B: 0.04},
		Secondary:  RGB{R: 0.95, G: 0.62, B: 0.25},
		Speed:      0.35,
		Intensity:  0.65,
		NoiseScale: 3.0,
		Distortion: 1.1,
	},
	StateAlert: {
		Primary:    RGB{R: 0.45, G: 0.05, B: 0.02},
		Secondary:  RGB{R: 1.0, G: 0.27, B: 0.0},
		Speed:      0.9,
		Intensity:  1.0,
		NoiseScale: 4.5,
		Distortion: 2.0,
	},
	StateAdaptive: {
		Primary:    RGB{R: 0.03, G: 0.25, B: 0.12},
		Secondary:  RGB{R: 0.25, G: 0.85, B: 0.55},
		Speed:      0.45,
		Intensity:  0.7,
		NoiseScale: 3.4,
		Distortion: 1.4,
	},
	StateConnection: {
		Primary:    RGB{R: 0.16, G: 0.05, B: 0.35},
		Secondary:  RGB{R: 0.55, G: 0.35, B: 0.95},
		Speed:      0.55,
		Intensity:  0.8,
		NoiseScale: 2.8,
		Distortion: 1.0,
	},
}

// ledTable holds the hand-tuned strip targets for states where the theme
// color has been adjusted by eye on real hardware. States missing here fall
// back to DeriveRGBW over their visual parameters.
var ledTable = map[State]RGBW{
	StateStandby: {R: 5, G: 20, B: 45, W: 0},
	StateArrival: {R: 240, G: 150, B: 50, W: 10},
	StateAlert:   {R: 255, G: 69, B: 0, W: 0},
}

// Visual returns the background parameters for the given state.
//
// The returned struct is a value copy; mutating it never affects the
// canonical table. StateNone (and any invalid state) yields the standby
// parameters so a renderer always has something sensible to draw.
func Visual(s State) VisualParams {
	if p, ok := visualTable[s]; ok {
		return p
	}
	return visualTable[StateStandby]
}

// LED returns the strip target color for the given state.
//
// StateNone extinguishes the strip. Hand-tuned entries win; anything else
// derives from the visual parameters. The returned struct is a value copy.
func LED(s State) RGBW {
	if s == StateNone || !s.Valid() {
		return RGBW{}
	}
	if c, ok := ledTable[s]; ok {
		return c
	}
	return DeriveRGBW(Visual(s))
}

// boostExponent lifts dim channels nonlinearly (x^0.7) so dark theme colors
// remain visible on the physical strip.
const boostExponent = 0.7

// DeriveRGBW computes a strip color from visual parameters.
//
// The blend weights the secondary color at 70% and the primary at 30%,
// matching the perceived dominance of the secondary in the rendered
// pattern. Each channel is then boosted by x^0.7 before scaling to [0,255].
// White is extracted by minimum-channel subtraction: W = min(R,G,B), with
// the minimum removed from the color channels. This is the single white
// policy for the whole system.
func DeriveRGBW(p VisualParams) RGBW {
	blend := func(a, b float64) int {
		v := 0.3*a + 0.7*b
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return int(math.Round(math.Pow(v, boostExponent) * 255))
	}

	r := blend(p.Primary.R, p.Secondary.R)
	g := blend(p.Primary.G, p.Secondary.G)
	b := blend(p.Primary.B, p.Secondary.B)

	w := r
	if g < w {
		w = g
	}
	if b < w {
		w = b
	}

	return RGBW{R: r - w, G: g - w, B: b - w, W: w}.Clamp()
}
