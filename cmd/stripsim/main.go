// Swirl strip simulator - device-side controller host
//
// stripsim runs the strip controller state machine against either a real
// serial port or stdin/stdout, rendering every flush as a row of colored
// blocks in the terminal. It stands in for the microcontroller firmware
// during bench work: point swirld's lighting device at one end of a pty
// pair and stripsim at the other.
//
//	socat -d -d pty,raw,echo=0 pty,raw,echo=0
//	stripsim -device /dev/pts/3
//	stripsim -stdio        # type commands, e.g. "arrival,0,0,0,0"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/logging"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/lighting"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/strip"
)

func main() {
	device := flag.String("device", "", "serial device to listen on, e.g. /dev/ttyUSB0")
	useStdio := flag.Bool("stdio", false, "read commands from stdin instead of a serial port")
	leds := flag.Int("leds", 60, "number of pixels")
	wipeMs := flag.Int("wipe-ms", 18, "delay between wipe steps in milliseconds")
	pulse := flag.Bool("pulse", true, "enable ambient pulsing")
	resnap := flag.Bool("resnap", false, "re-snap to the canonical color on repeated state commands")
	flag.Parse()

	if err := run(*device, *useStdio, *leds, *wipeMs, *pulse, *resnap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(device string, useStdio bool, leds, wipeMs int, pulse, resnap bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logging.Default()

	var rw io.ReadWriter
	switch {
	case useStdio:
		// Replies go to stdout, so the strip renders on stderr.
		rw = struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
	case device != "":
		port, err := serial.Open(device, &serial.Mode{
			BaudRate: lighting.SerialBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return fmt.Errorf("opening %s: %w", device, err)
		}
		defer port.Close()
		rw = port
	default:
		return fmt.Errorf("either -device or -stdio is required")
	}

	display := newTermStrip(leds, os.Stderr)

	ctrl := strip.NewController(rw, display, strip.Config{
		WipeStepDelay:  time.Duration(wipeMs) * time.Millisecond,
		PulseEnabled:   pulse,
		ResnapOnRepeat: resnap,
	}, nil, log)

	log.Info("strip simulator running",
		"leds", leds,
		"stdio", useStdio,
		"device", device,
	)

	if err := ctrl.Run(ctx); err != nil {
		return fmt.Errorf("controller loop: %w", err)
	}
	return nil
}

// termStrip renders each flush as one line of true-color blocks.
type termStrip struct {
	pixels []state.RGBW
	out    io.Writer
}

func newTermStrip(n int, out io.Writer) *termStrip {
	return &termStrip{
		pixels: make([]state.RGBW, n),
		out:    out,
	}
}

func (t *termStrip) Len() int {
	return len(t.pixels)
}

func (t *termStrip) SetPixel(i int, c state.RGBW) {
	if i < 0 || i >= len(t.pixels) {
		return
	}
	t.pixels[i] = c
}

// Flush redraws the strip line in place. The white channel is folded back
// into RGB for display since terminals have no fourth channel.
func (t *termStrip) Flush() error {
	fmt.Fprint(t.out, "\r")
	for _, p := range t.pixels {
		r := addClamp(p.R, p.W)
		g := addClamp(p.G, p.W)
		b := addClamp(p.B, p.W)
		fmt.Fprintf(t.out, "\x1b[38;2;%d;%d;%dm█", r, g, b)
	}
	fmt.Fprint(t.out, "\x1b[0m")
	return nil
}

func addClamp(a, b int) uint8 {
	v := a + b
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
