package strip

import (
	"sync"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// Strip abstracts the physical pixel chain.
//
// On real hardware this is backed by a ws2812-class driver; for bench work
// and tests the in-memory and terminal implementations below stand in.
// SetPixel stages a color; nothing is visible until Flush.
type Strip interface {
	// Len returns the number of pixels.
	Len() int

	// SetPixel stages color c for pixel i. Out-of-range indexes are
	// ignored.
	SetPixel(i int, c state.RGBW)

	// Flush pushes the staged colors to the hardware.
	Flush() error
}

// MemoryStrip is an in-memory Strip that records a snapshot of the pixel
// buffer on every Flush. It backs the controller tests and the simulator.
//
// Thread Safety: all methods are safe for concurrent use.
type MemoryStrip struct {
	mu      sync.Mutex
	pixels  []state.RGBW
	flushes [][]state.RGBW
}

// NewMemoryStrip creates a MemoryStrip with n pixels, all black.
func NewMemoryStrip(n int) *MemoryStrip {
	return &MemoryStrip{pixels: make([]state.RGBW, n)}
}

// Len returns the number of pixels.
func (m *MemoryStrip) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pixels)
}

// SetPixel stages color c for pixel i.
func (m *MemoryStrip) SetPixel(i int, c state.RGBW) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.pixels) {
		return
	}
	m.pixels[i] = c
}

// Flush records a snapshot of the current pixel buffer.
func (m *MemoryStrip) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]state.RGBW, len(m.pixels))
	copy(snapshot, m.pixels)
	m.flushes = append(m.flushes, snapshot)
	return nil
}

// Pixels returns a copy of the current (last staged) pixel buffer.
func (m *MemoryStrip) Pixels() []state.RGBW {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.RGBW, len(m.pixels))
	copy(out, m.pixels)
	return out
}

// Flushes returns copies of every flushed frame, oldest first.
func (m *MemoryStrip) Flushes() [][]state.RGBW {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]state.RGBW, len(m.flushes))
	for i, f := range m.flushes {
		frame := make([]state.RGBW, len(f))
		copy(frame, f)
		out[i] = frame
	}
	return out
}

// FlushCount returns how many times Flush has been called.
func (m *MemoryStrip) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flushes)
}
