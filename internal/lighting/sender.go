package lighting

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

// Fade defaults.
const (
	// DefaultFadeDuration is how long a software fade takes end to end.
	DefaultFadeDuration = 3500 * time.Millisecond

	// DefaultFadeSteps is the number of discrete writes per fade. The last
	// step always carries the exact target color.
	DefaultFadeSteps = 100
)

// Config contains Sender tuning.
type Config struct {
	// FadeEnabled selects timed fades over immediate sends for state
	// changes after the first color.
	FadeEnabled bool

	// FadeDuration is the end-to-end fade length. <= 0 selects
	// DefaultFadeDuration.
	FadeDuration time.Duration

	// FadeSteps is the number of writes per fade. <= 1 selects
	// DefaultFadeSteps.
	FadeSteps int
}

// Logger is the minimal logging interface the Sender needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Status is a snapshot of the Sender for status queries.
type Status struct {
	Connected    bool        `json:"connected"`
	State        state.State `json:"state"`
	PendingState state.State `json:"pending_state,omitempty"`
	Fading       bool        `json:"fading"`
}

// fadeRun tracks one in-flight fade so it can be cancelled.
type fadeRun struct {
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

func newFadeRun() *fadeRun {
	return &fadeRun{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// abort signals the fade goroutine without waiting for it.
func (f *fadeRun) abort() {
	f.cancelOnce.Do(func() { close(f.cancel) })
}

// stop cancels the fade and waits for its goroutine to exit, guaranteeing
// no write from the old fade can race a write from the caller.
func (f *fadeRun) stop() {
	f.abort()
	<-f.done
}

// Sender drives the strip controller over a Transport.
//
// See the package documentation for the delivery and failure model.
type Sender struct {
	transport Transport
	cfg       Config
	logger    Logger

	mu           sync.Mutex
	connected    bool
	currentState state.State
	current      state.RGBW
	hasColor     bool
	pending      state.State
	hasPending   bool
	fade         *fadeRun
	onDisconnect func(err error)
}

// NewSender creates a Sender over the given transport.
//
// Parameters:
//   - transport: Serial channel to the strip controller
//   - cfg: Fade tuning (zero value = immediate sends, defaults applied)
//   - logger: Logger instance (nil for silent operation)
func NewSender(transport Transport, cfg Config, logger Logger) *Sender {
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = DefaultFadeDuration
	}
	if cfg.FadeSteps <= 1 {
		cfg.FadeSteps = DefaultFadeSteps
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sender{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
	}
}

// Connect acquires the transport.
//
// On success any state requested while disconnected is pushed immediately.
// Failure is reported as ErrConnectionFailed; no retry is attempted.
func (s *Sender) Connect() error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.transport.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	s.mu.Lock()
	s.connected = true
	pending := s.pending
	hasPending := s.hasPending
	s.hasPending = false
	s.mu.Unlock()

	s.logger.Debug("lighting transport connected")

	if hasPending {
		return s.SetState(pending)
	}
	return nil
}

// Disconnect cancels any in-flight fade and releases the transport.
// Safe to call when already disconnected.
func (s *Sender) Disconnect() error {
	s.mu.Lock()
	fade := s.fade
	s.fade = nil
	wasConnected := s.connected
	s.connected = false
	s.mu.Unlock()

	if fade != nil {
		fade.stop()
	}
	if !wasConnected {
		return nil
	}

	s.logger.Debug("lighting transport disconnecting")
	return s.transport.Close()
}

// Connected reports whether the link is up.
func (s *Sender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Status returns a snapshot for status queries.
func (s *Sender) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Connected: s.connected,
		State:     s.currentState,
		Fading:    s.fade != nil,
	}
	if s.hasPending {
		st.PendingState = s.pending
	}
	return st
}

// SetOnDisconnect sets a callback invoked when a write failure drops the
// link. The callback runs on the goroutine that observed the failure.
func (s *Sender) SetOnDisconnect(callback func(err error)) {
	s.mu.Lock()
	s.onDisconnect = callback
	s.mu.Unlock()
}

// SetState moves the strip toward the target color for st.
//
// Disconnected: the state is remembered and nil is returned — requesting a
// state is never an error just because the strip is unplugged. Connected:
// the target is sent immediately (first color, or fades disabled) or a
// fade is started. A fade already in flight is cancelled first; the Sender
// never has two writers on the transport.
func (s *Sender) SetState(st state.State) error {
	if !st.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, st)
	}

	s.mu.Lock()
	if !s.connected {
		s.pending = st
		s.hasPending = true
		s.mu.Unlock()
		return nil
	}
	fade := s.fade
	s.fade = nil
	s.mu.Unlock()

	if fade != nil {
		fade.stop()
	}

	// Read the start color only after the old fade has fully stopped, so the
	// new fade picks up from the last color actually written to the strip.
	s.mu.Lock()
	start := s.current
	hasColor := s.hasColor
	s.mu.Unlock()

	target := state.LED(st)

	if !s.cfg.FadeEnabled || !hasColor {
		if err := s.writeCommand(st, target); err != nil {
			return err
		}
		s.mu.Lock()
		s.currentState = st
		s.current = target
		s.hasColor = true
		s.mu.Unlock()
		return nil
	}

	run := newFadeRun()
	s.mu.Lock()
	if !s.connected {
		// Dropped while the previous fade was being cancelled.
		s.pending = st
		s.hasPending = true
		s.mu.Unlock()
		close(run.done)
		return nil
	}
	s.fade = run
	s.currentState = st
	s.mu.Unlock()

	go s.runFade(run, st, start, target)
	return nil
}

// runFade performs one write per tick, easing from start to target.
// The final step re-sends the exact target to correct rounding drift.
func (s *Sender) runFade(run *fadeRun, st state.State, start, target state.RGBW) {
	defer close(run.done)

	interval := s.cfg.FadeDuration / time.Duration(s.cfg.FadeSteps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for step := 1; step <= s.cfg.FadeSteps; step++ {
		select {
		case <-run.cancel:
			return
		case <-ticker.C:
		}

		var c state.RGBW
		if step == s.cfg.FadeSteps {
			c = target
		} else {
			progress := float64(step) / float64(s.cfg.FadeSteps)
			c = fadeColor(start, target, visual.QuinticInOut(progress))
		}

		if err := s.writeCommand(st, c); err != nil {
			s.logger.Warn("fade aborted by write failure", "state", st, "step", step, "error", err)
			return
		}

		s.mu.Lock()
		s.current = c
		s.hasColor = true
		s.mu.Unlock()
	}

	s.mu.Lock()
	if s.fade == run {
		s.fade = nil
	}
	s.mu.Unlock()
}

// writeCommand encodes and writes one line; any failure drops the link.
func (s *Sender) writeCommand(st state.State, c state.RGBW) error {
	if _, err := s.transport.Write(EncodeCommand(st, c)); err != nil {
		s.dropLink(err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// dropLink transitions to disconnected after a write failure. The fade (if
// any) is detached so its goroutine exits on its next tick, and the
// transport is closed best-effort.
func (s *Sender) dropLink(cause error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	if s.fade != nil {
		s.fade.abort()
		s.fade = nil
	}
	callback := s.onDisconnect
	s.mu.Unlock()

	s.logger.Warn("lighting link dropped", "error", cause)
	_ = s.transport.Close() //nolint:errcheck // Best effort after a failed write

	if callback != nil {
		callback(cause)
	}
}

// fadeColor interpolates each channel with the eased progress t.
func fadeColor(a, b state.RGBW, t float64) state.RGBW {
	lerp := func(x, y int) int {
		return int(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return state.RGBW{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		W: lerp(a.W, b.W),
	}.Clamp()
}
