package visual

import (
	"image"
	"image/color"
	"math"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// Smoothstep edges for the final pattern threshold. Tuned so the secondary
// color occupies roughly half the field at intensity 1.
const (
	blendEdgeLow  = 0.38
	blendEdgeHigh = 0.62
)

// Renderer fills pixel buffers with the procedural flow pattern.
//
// Shade is a pure function of (normalized position, elapsed seconds,
// params): rendering the same inputs always yields the same pixels, which
// is what makes the pattern mirrorable across independent surfaces without
// any synchronisation beyond shared state and a shared clock origin.
type Renderer struct{}

// NewRenderer creates a Renderer. It carries no state; the type exists so
// hosts hold a handle rather than calling package-level functions.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Shade computes the pattern color at normalized position (u, v) — u along
// the width, v along the height, both in [0,1] — at elapsed time t seconds.
//
// The computation layers five octaves of value noise into a fractal flow
// field, uses the field to displace a rotation angle that warps a second
// noise sample, and threshold-maps the result through smoothstep to blend
// the two state colors.
func (r *Renderer) Shade(u, v, t float64, p state.VisualParams) state.RGB {
	x := u * p.NoiseScale
	y := v * p.NoiseScale

	// Time-advected flow field.
	flow := fbm(x+t*p.Speed*0.3, y+t*p.Speed*0.2)

	// The flow displaces a rotation angle; distortion scales how hard the
	// second sample is warped.
	angle := flow*p.Distortion*2*math.Pi + t*p.Speed*0.1
	sin, cos := math.Sin(angle), math.Cos(angle)
	wx := x*cos - y*sin + t*p.Speed*0.15
	wy := x*sin + y*cos

	n := fbm(wx, wy)

	mix := Smoothstep(blendEdgeLow, blendEdgeHigh, n) * clamp01(p.Intensity)

	return state.RGB{
		R: Lerp(p.Primary.R, p.Secondary.R, mix),
		G: Lerp(p.Primary.G, p.Secondary.G, mix),
		B: Lerp(p.Primary.B, p.Secondary.B, mix),
	}
}

// Render fills img with the pattern at elapsed time t seconds.
//
// A nil or empty image is ignored, mirroring the contract that an
// unavailable rendering surface silently disables the visual subsystem.
func (r *Renderer) Render(img *image.RGBA, t float64, p state.VisualParams) {
	if img == nil {
		return
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return
	}

	for py := 0; py < h; py++ {
		v := float64(py) / float64(h)
		for px := 0; px < w; px++ {
			u := float64(px) / float64(w)
			c := r.Shade(u, v, t, p)
			img.SetRGBA(bounds.Min.X+px, bounds.Min.Y+py, color.RGBA{
				R: channelByte(c.R),
				G: channelByte(c.G),
				B: channelByte(c.B),
				A: 0xff,
			})
		}
	}
}

// channelByte converts a normalized channel to an 8-bit value.
func channelByte(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
