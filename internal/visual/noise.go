package visual

import "math"

// Fractal noise constants for the flow field.
const (
	// fbmOctaves is the number of value-noise layers; each octave doubles
	// frequency and halves amplitude.
	fbmOctaves = 5

	// fbmLacunarity is the per-octave frequency multiplier.
	fbmLacunarity = 2.0

	// fbmGain is the per-octave amplitude multiplier.
	fbmGain = 0.5
)

// hash21 maps an integer lattice point to a deterministic value in [0,1).
// Standard integer scramble; the exact constants only need to decorrelate
// neighbouring cells.
func hash21(x, y int32) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h) / float64(math.MaxUint32)
}

// valueNoise samples smooth 2D value noise at (x, y).
//
// Lattice corner values come from hash21 and are blended with a Hermite
// fade, so the field is C1-continuous.
func valueNoise(x, y float64) float64 {
	xf := math.Floor(x)
	yf := math.Floor(y)
	xi := int32(xf)
	yi := int32(yf)

	tx := x - xf
	ty := y - yf

	// Hermite fade on both axes.
	u := tx * tx * (3 - 2*tx)
	v := ty * ty * (3 - 2*ty)

	a := hash21(xi, yi)
	b := hash21(xi+1, yi)
	c := hash21(xi, yi+1)
	d := hash21(xi+1, yi+1)

	return Lerp(Lerp(a, b, u), Lerp(c, d, u), v)
}

// fbm layers fbmOctaves of value noise into fractal Brownian motion,
// normalized back into [0,1].
func fbm(x, y float64) float64 {
	sum := 0.0
	amp := 1.0
	norm := 0.0

	for i := 0; i < fbmOctaves; i++ {
		sum += amp * valueNoise(x, y)
		norm += amp
		x *= fbmLacunarity
		y *= fbmLacunarity
		amp *= fbmGain
	}

	return sum / norm
}
