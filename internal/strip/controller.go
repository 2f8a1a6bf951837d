package strip

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

// Controller timing defaults.
const (
	// DefaultWipeStepDelay is how long each pixel of a wipe is held before
	// the next one lights up.
	DefaultWipeStepDelay = 18 * time.Millisecond

	// DefaultPulseInterval is the ambient pulse poll rate (40 Hz, safely
	// under the 50 Hz ceiling).
	DefaultPulseInterval = 25 * time.Millisecond

	// protocolFieldCount is the exact number of comma-separated tokens in
	// a valid command line.
	protocolFieldCount = 5
)

// ReadyBanner is sent unsolicited when the controller starts.
const ReadyBanner = "READY swirl-strip"

// Config contains Controller tuning.
type Config struct {
	// WipeStepDelay overrides DefaultWipeStepDelay when > 0.
	WipeStepDelay time.Duration

	// PulseInterval overrides DefaultPulseInterval when > 0.
	PulseInterval time.Duration

	// ResnapOnRepeat makes a repeated same-state command re-snap the strip
	// to the canonical color instead of being a no-op.
	ResnapOnRepeat bool

	// PulseEnabled turns ambient pulsing on.
	PulseEnabled bool
}

// Logger is the minimal logging interface for the controller.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Controller is the device-side state machine.
//
// It owns the strip and a bidirectional command stream, and runs a
// single-threaded loop: take one complete line (if any), apply it, then let
// the pulse tick. Wipes run inline and block the loop on purpose — lines
// arriving mid-wipe sit in the transport buffer and are handled strictly in
// arrival order afterwards.
type Controller struct {
	rw     io.ReadWriter
	strip  Strip
	cfg    Config
	clock  visual.Clock
	sleep  func(time.Duration)
	logger Logger

	current   state.State
	base      state.RGBW
	hasColor  bool
	wiping    bool
	settledAt time.Time
}

// NewController creates a Controller.
//
// Parameters:
//   - rw: Command input / reply output stream (the serial port)
//   - strip: Pixel chain to drive
//   - cfg: Timing and behavior tuning
//   - clock: Time source for pulsing (nil selects the system clock)
//   - logger: Logger instance (nil for silent operation)
func NewController(rw io.ReadWriter, strip Strip, cfg Config, clock visual.Clock, logger Logger) *Controller {
	if cfg.WipeStepDelay <= 0 {
		cfg.WipeStepDelay = DefaultWipeStepDelay
	}
	if cfg.PulseInterval <= 0 {
		cfg.PulseInterval = DefaultPulseInterval
	}
	if clock == nil {
		clock = visual.SystemClock{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		rw:      rw,
		strip:   strip,
		cfg:     cfg,
		clock:   clock,
		sleep:   time.Sleep,
		logger:  logger,
		current: state.StateNone,
	}
}

// Run executes the controller loop until ctx is cancelled or the command
// stream ends.
//
// The ready banner is written first, then the loop alternates between
// processing one complete line and one pulse tick. Reader errors end the
// loop; everything else is non-fatal.
func (c *Controller) Run(ctx context.Context) error {
	fmt.Fprintf(c.rw, "%s %d\n", ReadyBanner, c.strip.Len())

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.rw)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	ticker := time.NewTicker(c.cfg.PulseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("reading commands: %w", err)
			}
			return nil
		case line := <-lines:
			c.HandleLine(line)
		case <-ticker.C:
			c.pulseTick()
		}
	}
}

// HandleLine parses and applies one protocol line, writing the OK/ERR reply.
// Exposed for bench harnesses; Run calls it for every received line.
func (c *Controller) HandleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	target, diag := c.parseLine(line)
	if diag != "" {
		fmt.Fprintf(c.rw, "ERR %s\n", diag)
		c.logger.Warn("rejected command", "line", line, "reason", diag)
		return
	}

	applied := c.apply(target)
	fmt.Fprintf(c.rw, "OK %s %d,%d,%d,%d\n", target, applied.R, applied.G, applied.B, applied.W)
}

// parseLine validates the line shape and extracts the state token.
//
// The wire-supplied channel values are parsed and clamped for protocol
// compatibility but otherwise unused: the device palette governs. A
// non-empty diagnostic means the line was malformed.
func (c *Controller) parseLine(line string) (state.State, string) {
	if !strings.Contains(line, ",") {
		return state.StateNone, "missing separator"
	}

	fields := strings.Split(line, ",")
	if len(fields) != protocolFieldCount {
		return state.StateNone, fmt.Sprintf("expected %d fields, got %d", protocolFieldCount, len(fields))
	}

	for _, f := range fields[1:] {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return state.StateNone, fmt.Sprintf("bad channel value %q", strings.TrimSpace(f))
		}
		_ = state.ClampChannel(v)
	}

	return state.ParseState(fields[0]), ""
}

// apply transitions the strip to the target state's canonical color and
// returns the color actually shown.
func (c *Controller) apply(target state.State) state.RGBW {
	color := state.LED(target)

	switch {
	case target == c.current && c.hasColor:
		// Repeated command: exactly one wipe per state change, never two.
		if c.cfg.ResnapOnRepeat {
			c.snap(color)
		}
	case !c.hasColor || target == state.StateNone:
		c.snap(color)
	default:
		c.wipe(color)
	}

	c.current = target
	c.base = color
	c.hasColor = true
	c.settledAt = c.clock.Now()
	return color
}

// snap sets every pixel to color and flushes once.
func (c *Controller) snap(color state.RGBW) {
	for i := 0; i < c.strip.Len(); i++ {
		c.strip.SetPixel(i, color)
	}
	if err := c.strip.Flush(); err != nil {
		c.logger.Warn("strip flush failed", "error", err)
	}
}

// wipe lights pixels 0..N-1 one at a time, flushing the whole strip after
// each and holding the fixed per-step delay. Blocking by design.
func (c *Controller) wipe(color state.RGBW) {
	c.wiping = true
	defer func() { c.wiping = false }()

	for i := 0; i < c.strip.Len(); i++ {
		c.strip.SetPixel(i, color)
		if err := c.strip.Flush(); err != nil {
			c.logger.Warn("strip flush failed mid-wipe", "pixel", i, "error", err)
			return
		}
		c.sleep(c.cfg.WipeStepDelay)
	}
}

// pulseTick applies one step of ambient pulsing, if the current state
// pulses. Suspended during wipes and in standby/none.
func (c *Controller) pulseTick() {
	if !c.cfg.PulseEnabled || c.wiping || !c.hasColor {
		return
	}

	spec, ok := Pulse(c.current)
	if !ok {
		return
	}

	factor := spec.Factor(c.clock.Now().Sub(c.settledAt))
	c.snap(scale(c.base, factor))
}
