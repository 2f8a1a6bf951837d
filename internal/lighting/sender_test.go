package lighting

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

// ─── Mock Transport ─────────────────────────────────────────────────────────

// mockTransport records every written line and can fail on demand.
type mockTransport struct {
	mu        sync.Mutex
	opened    bool
	closed    int
	lines     [][]byte
	openErr   error
	failAfter int // fail writes once this many have succeeded; -1 = never
}

func newMockTransport() *mockTransport {
	return &mockTransport{failAfter: -1}
}

func (m *mockTransport) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && len(m.lines) >= m.failAfter {
		return 0, errors.New("broken pipe")
	}
	m.lines = append(m.lines, bytes.Clone(p))
	return len(p), nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockTransport) Lines() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.lines...)
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestEncodeCommand(t *testing.T) {
	got := EncodeCommand(state.StateAlert, state.RGBW{R: 255, G: 69, B: 0, W: 0})
	if string(got) != "alert,255,69,0,0\n" {
		t.Errorf("EncodeCommand = %q", got)
	}
}

func TestEncodeCommandClampsChannels(t *testing.T) {
	got := EncodeCommand(state.StateStandby, state.RGBW{R: 300, G: -5, B: 128, W: 999})
	if string(got) != "standby,255,0,128,255\n" {
		t.Errorf("EncodeCommand with out-of-range channels = %q", got)
	}
}

func TestSetStateWhileDisconnectedIsRemembered(t *testing.T) {
	transport := newMockTransport()
	s := NewSender(transport, Config{}, nil)

	if err := s.SetState(state.StateAlert); err != nil {
		t.Fatalf("SetState while disconnected must not error, got %v", err)
	}
	if len(transport.Lines()) != 0 {
		t.Fatal("nothing may be written while disconnected")
	}

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	lines := transport.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected pending state pushed on connect, got %d lines", len(lines))
	}
	if !strings.HasPrefix(string(lines[0]), "alert,") {
		t.Errorf("pushed line = %q, want alert command", lines[0])
	}
}

func TestSetStateRejectsInvalidState(t *testing.T) {
	s := NewSender(newMockTransport(), Config{}, nil)
	if err := s.SetState(state.StateNone); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetState(none) error = %v, want ErrInvalidState", err)
	}
}

func TestConnectFailureIsDistinguishable(t *testing.T) {
	transport := newMockTransport()
	transport.openErr = errors.New("no such device")
	s := NewSender(transport, Config{}, nil)

	err := s.Connect()
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect error = %v, want ErrConnectionFailed", err)
	}
	if s.Connected() {
		t.Error("sender must stay disconnected after a failed connect")
	}
}

func TestFirstColorSnapsEvenWithFadesEnabled(t *testing.T) {
	transport := newMockTransport()
	s := NewSender(transport, Config{FadeEnabled: true}, nil)

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.SetState(state.StateArrival); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	lines := transport.Lines()
	if len(lines) != 1 {
		t.Fatalf("first color must be a single immediate send, got %d lines", len(lines))
	}
	want := EncodeCommand(state.StateArrival, state.LED(state.StateArrival))
	if !bytes.Equal(lines[0], want) {
		t.Errorf("snap line = %q, want %q", lines[0], want)
	}
}

func TestFadeSendsStepsAndExactFinalTarget(t *testing.T) {
	transport := newMockTransport()
	cfg := Config{
		FadeEnabled:  true,
		FadeDuration: 100 * time.Millisecond,
		FadeSteps:    10,
	}
	s := NewSender(transport, cfg, nil)

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.SetState(state.StateArrival); err != nil {
		t.Fatalf("SetState(arrival): %v", err)
	}
	if err := s.SetState(state.StateAlert); err != nil {
		t.Fatalf("SetState(alert): %v", err)
	}

	waitFor(t, time.Second, func() bool { return !s.Status().Fading })

	lines := transport.Lines()
	// 1 snap + 10 fade steps.
	if len(lines) != 1+cfg.FadeSteps {
		t.Fatalf("got %d lines, want %d", len(lines), 1+cfg.FadeSteps)
	}

	final := lines[len(lines)-1]
	want := EncodeCommand(state.StateAlert, state.LED(state.StateAlert))
	if !bytes.Equal(final, want) {
		t.Errorf("final fade line = %q, want exact target %q", final, want)
	}

	// Every fade channel must move monotonically toward the target.
	prev := parseLine(t, lines[1])
	target := state.LED(state.StateAlert)
	start := state.LED(state.StateArrival)
	for _, line := range lines[2:] {
		cur := parseLine(t, line)
		assertMonotone(t, "R", start.R, target.R, prev.R, cur.R)
		assertMonotone(t, "G", start.G, target.G, prev.G, cur.G)
		assertMonotone(t, "B", start.B, target.B, prev.B, cur.B)
		assertMonotone(t, "W", start.W, target.W, prev.W, cur.W)
		prev = cur
	}
}

func TestWriteFailureMidFadeDropsLink(t *testing.T) {
	transport := newMockTransport()
	cfg := Config{
		FadeEnabled:  true,
		FadeDuration: 100 * time.Millisecond,
		FadeSteps:    10,
	}
	s := NewSender(transport, cfg, nil)

	var dropErr error
	var dropMu sync.Mutex
	s.SetOnDisconnect(func(err error) {
		dropMu.Lock()
		dropErr = err
		dropMu.Unlock()
	})

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.SetState(state.StateArrival); err != nil {
		t.Fatalf("SetState(arrival): %v", err)
	}

	// Allow the snap plus three fade writes, then break the pipe.
	transport.mu.Lock()
	transport.failAfter = 4
	transport.mu.Unlock()

	if err := s.SetState(state.StateAlert); err != nil {
		t.Fatalf("SetState(alert): %v", err)
	}

	waitFor(t, time.Second, func() bool { return !s.Connected() })

	dropMu.Lock()
	defer dropMu.Unlock()
	if dropErr == nil {
		t.Error("disconnect callback not invoked after write failure")
	}
	if got := len(transport.Lines()); got != 4 {
		t.Errorf("fade kept writing after failure: %d lines", got)
	}
	if s.Status().Fading {
		t.Error("fade must be cancelled after a write failure")
	}
}

// gatedTransport blocks exactly one write (the one issued when gateAfter
// lines already exist) until release is closed. It lets a test hold a fade
// step in flight while something else happens.
type gatedTransport struct {
	*mockTransport
	gateAfter int
	entered   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (g *gatedTransport) Write(p []byte) (int, error) {
	if len(g.Lines()) == g.gateAfter {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.mockTransport.Write(p)
}

func TestFadeRestartContinuesFromLastWrittenColor(t *testing.T) {
	transport := &gatedTransport{
		mockTransport: newMockTransport(),
		gateAfter:     1, // hold the first fade step write in flight
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	cfg := Config{
		FadeEnabled:  true,
		FadeDuration: 40 * time.Millisecond,
		FadeSteps:    4,
	}
	s := NewSender(transport, cfg, nil)

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.SetState(state.StateArrival); err != nil {
		t.Fatalf("SetState(arrival): %v", err)
	}
	if err := s.SetState(state.StateAlert); err != nil {
		t.Fatalf("SetState(alert): %v", err)
	}

	select {
	case <-transport.entered:
	case <-time.After(time.Second):
		t.Fatal("first fade step never reached the transport")
	}

	// Restart toward connection while the alert step write is still in
	// flight. SetState must wait for that write to land and use its color
	// as the new fade's start.
	done := make(chan error, 1)
	go func() { done <- s.SetState(state.StateConnection) }()

	waitFor(t, time.Second, func() bool { return !s.Status().Fading })
	close(transport.release)

	if err := <-done; err != nil {
		t.Fatalf("SetState(connection): %v", err)
	}
	waitFor(t, time.Second, func() bool { return !s.Status().Fading })

	lines := transport.Lines()
	// 1 snap + 1 alert step + 4 connection steps.
	if len(lines) != 2+cfg.FadeSteps {
		t.Fatalf("got %d lines, want %d", len(lines), 2+cfg.FadeSteps)
	}

	lastWritten := parseLine(t, lines[1])
	progress := 1.0 / float64(cfg.FadeSteps)
	wantFirst := fadeColor(lastWritten, state.LED(state.StateConnection), visual.QuinticInOut(progress))
	gotFirst := parseLine(t, lines[2])
	if gotFirst != wantFirst {
		t.Errorf("restarted fade step 1 = %+v, want %+v (eased from last written %+v)",
			gotFirst, wantFirst, lastWritten)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	transport := newMockTransport()
	s := NewSender(transport, Config{}, nil)

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect before Connect: %v", err)
	}

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("first Disconnect: %v", err)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.closed != 1 {
		t.Errorf("transport closed %d times, want 1", transport.closed)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// parseLine decodes "state,R,G,B,W\n" back into a color.
func parseLine(t *testing.T, line []byte) state.RGBW {
	t.Helper()
	var c state.RGBW
	parts := strings.Split(strings.TrimSpace(string(line)), ",")
	if len(parts) != 5 {
		t.Fatalf("malformed line %q", line)
	}
	if _, err := fmt.Sscanf(strings.Join(parts[1:], " "), "%d %d %d %d", &c.R, &c.G, &c.B, &c.W); err != nil {
		t.Fatalf("parsing %q: %v", line, err)
	}
	return c
}

// assertMonotone checks that cur moved from prev toward target (direction
// set by start vs target), never away.
func assertMonotone(t *testing.T, name string, start, target, prev, cur int) {
	t.Helper()
	if target >= start && cur < prev {
		t.Fatalf("channel %s regressed: %d -> %d (target %d)", name, prev, cur, target)
	}
	if target < start && cur > prev {
		t.Fatalf("channel %s regressed: %d -> %d (target %d)", name, prev, cur, target)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
