package visual

import "math"

// QuinticInOut is the primary easing curve for motion parameters.
//
// f(p) = 16p⁵ for p < 0.5, 1 − (−2p+2)⁵/2 otherwise. Input outside [0,1]
// is clamped.
func QuinticInOut(p float64) float64 {
	p = clamp01(p)
	if p < 0.5 {
		return 16 * p * p * p * p * p
	}
	return 1 - math.Pow(-2*p+2, 5)/2
}

// QuarticInOut is the gentler curve applied to color channels.
//
// f(p) = 8p⁴ for p < 0.5, 1 − (−2p+2)⁴/2 otherwise. Input outside [0,1]
// is clamped.
func QuarticInOut(p float64) float64 {
	p = clamp01(p)
	if p < 0.5 {
		return 8 * p * p * p * p
	}
	return 1 - math.Pow(-2*p+2, 4)/2
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep is the Hermite threshold function used by the renderer's
// final color blend. Returns 0 below edge0, 1 above edge1, and a smooth
// cubic ramp in between.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
