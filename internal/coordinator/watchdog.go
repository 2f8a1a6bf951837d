package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

// DefaultIdleTimeout is how long without user activity before the watchdog
// forces standby.
const DefaultIdleTimeout = 5 * time.Minute

// watchdogPollInterval is how often the watchdog checks for expiry.
const watchdogPollInterval = 5 * time.Second

// Watchdog forces the installation back to standby after a period with no
// user input. Only armed in the controller role; followers construct one
// but Run returns immediately.
//
// Thread Safety: Touch and Check are safe for concurrent use.
type Watchdog struct {
	coord   *Coordinator
	timeout time.Duration
	clock   visual.Clock
	logger  Logger

	mu       sync.Mutex
	lastSeen time.Time
}

// NewWatchdog creates a watchdog around the coordinator.
//
// Parameters:
//   - coord: The coordinator to force into standby
//   - timeout: Idle period; <= 0 selects DefaultIdleTimeout
//   - clock: Time source (nil selects the system clock)
//   - logger: Logger instance (nil for silent operation)
func NewWatchdog(coord *Coordinator, timeout time.Duration, clock visual.Clock, logger Logger) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if clock == nil {
		clock = visual.SystemClock{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Watchdog{
		coord:    coord,
		timeout:  timeout,
		clock:    clock,
		logger:   logger,
		lastSeen: clock.Now(),
	}
}

// Touch records user activity, pushing the expiry forward.
func (w *Watchdog) Touch() {
	w.mu.Lock()
	w.lastSeen = w.clock.Now()
	w.mu.Unlock()
}

// Check fires the standby transition if the idle timeout has elapsed.
// Returns true if standby was forced. Idempotent while idle: once the
// installation is in standby further checks are no-ops.
func (w *Watchdog) Check(ctx context.Context) bool {
	if w.coord.Role() != RoleController {
		return false
	}

	w.mu.Lock()
	idle := w.clock.Now().Sub(w.lastSeen)
	w.mu.Unlock()

	if idle < w.timeout {
		return false
	}
	if w.coord.Current() == state.StateStandby {
		return false
	}

	w.logger.Info("inactivity watchdog forcing standby", "idle", idle)
	if err := w.coord.ChangeState(ctx, state.StateStandby, ChangeOpts{Origin: originWatchdog}); err != nil {
		w.logger.Warn("watchdog state change failed", "error", err)
		return false
	}
	return true
}

// Run polls Check until ctx is cancelled. Follower-role coordinators return
// immediately.
func (w *Watchdog) Run(ctx context.Context) {
	if w.coord.Role() != RoleController {
		return
	}

	ticker := time.NewTicker(watchdogPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
