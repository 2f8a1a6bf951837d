package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/mqtt"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// Role determines whether an instance originates or mirrors state changes.
type Role string

// Role constants.
const (
	RoleController Role = "controller"
	RoleFollower   Role = "follower"
)

// mirrorQoS is the QoS level for state mirroring. At-least-once: a
// duplicated state message is harmless (ChangeState is idempotent), a lost
// one is not.
const mirrorQoS = 1

// VisualEngine is the interface the coordinator needs from the visual
// engine.
type VisualEngine interface {
	SetState(s state.State)
}

// LightingEngine is the interface the coordinator needs from the lighting
// sender. SetState never fails for the "disconnected" case; real errors are
// logged, not propagated, because lighting is best-effort.
type LightingEngine interface {
	SetState(s state.State) error
}

// Store persists the last-known state and the change history.
type Store interface {
	SaveLastState(ctx context.Context, s state.State) error
	LoadLastState(ctx context.Context) (state.State, error)
	AppendHistory(ctx context.Context, rec HistoryRecord) error
}

// Mirror is the publish/subscribe channel for multi-instance mirroring.
// Satisfied by *mqtt.Client.
type Mirror interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Hub receives state events for push delivery to attached surfaces.
// Satisfied by the API server's WebSocket hub.
type Hub interface {
	Broadcast(channel string, payload any)
}

// Telemetry records state transitions to the time-series store.
type Telemetry interface {
	WriteStateChange(from, to state.State, origin string)
}

// Logger is the minimal logging interface for the coordinator.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// HistoryRecord is one persisted state transition.
type HistoryRecord struct {
	ChangeID  string      `json:"change_id"`
	FromState state.State `json:"from_state"`
	ToState   state.State `json:"to_state"`
	Origin    string      `json:"origin"`
	CreatedAt time.Time   `json:"created_at"`
}

// mirrorPayload is the JSON body published on the state topic.
type mirrorPayload struct {
	State    state.State `json:"state"`
	ChangeID string      `json:"change_id"`
	Origin   string      `json:"origin"`
	SentAt   time.Time   `json:"sent_at"`
}

// ChangeOpts overrides the role defaults for one change.
//
// Nil fields keep the default: controllers persist and broadcast, followers
// do neither.
type ChangeOpts struct {
	Broadcast *bool
	Persist   *bool

	// Origin labels where the change came from for history and telemetry
	// ("api", "watchdog", "mirror", "restore"). Empty means "api".
	Origin string
}

// Deps holds the coordinator's collaborators. Engines, store, mirror, hub
// and telemetry are all optional; a nil dependency is skipped.
type Deps struct {
	Role      Role
	Visual    VisualEngine
	Lighting  LightingEngine
	Store     Store
	Mirror    Mirror
	Hub       Hub
	Telemetry Telemetry
	Logger    Logger
}

// Coordinator owns the single authoritative current-state value.
//
// Thread Safety: all exported methods are safe for concurrent use.
type Coordinator struct {
	role       Role
	visual     VisualEngine
	lighting   LightingEngine
	store      Store
	mirror     Mirror
	hub        Hub
	telemetry  Telemetry
	logger     Logger
	instanceID string

	mu      sync.Mutex
	current state.State
}

// New creates a Coordinator resting in standby.
func New(deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{
		role:       deps.Role,
		visual:     deps.Visual,
		lighting:   deps.Lighting,
		store:      deps.Store,
		mirror:     deps.Mirror,
		hub:        deps.Hub,
		telemetry:  deps.Telemetry,
		logger:     logger,
		instanceID: uuid.NewString(),
		current:    state.StateStandby,
	}
}

// Role returns the configured role.
func (c *Coordinator) Role() Role {
	return c.role
}

// Current returns the authoritative current state.
func (c *Coordinator) Current() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ChangeState moves the installation to s.
//
// Identical consecutive states are a silent no-op. Otherwise the current
// state is updated, both engines are notified, and — subject to opts and
// role defaults — the change is persisted and broadcast. Follower instances
// reject caller-originated changes; mirrored changes arrive through the
// subscription instead.
func (c *Coordinator) ChangeState(ctx context.Context, s state.State, opts ChangeOpts) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	if c.role == RoleFollower && opts.Origin != originMirror {
		return ErrFollowerChange
	}
	return c.apply(ctx, s, opts)
}

// Origin labels.
const (
	originAPI      = "api"
	originWatchdog = "watchdog"
	originMirror   = "mirror"
	originRestore  = "restore"
)

// apply performs the state change. Shared by ChangeState and the mirror
// subscription handler.
func (c *Coordinator) apply(ctx context.Context, s state.State, opts ChangeOpts) error {
	origin := opts.Origin
	if origin == "" {
		origin = originAPI
	}

	c.mu.Lock()
	if s == c.current {
		c.mu.Unlock()
		return nil
	}
	from := c.current
	c.current = s
	c.mu.Unlock()

	changeID := uuid.NewString()
	c.logger.Info("state changed",
		"from", from,
		"to", s,
		"origin", origin,
		"change_id", changeID,
	)

	// Fan out to the engines. Lighting failure is logged, never fatal:
	// that subsystem simply stops updating.
	if c.visual != nil {
		c.visual.SetState(s)
	}
	if c.lighting != nil {
		if err := c.lighting.SetState(s); err != nil {
			c.logger.Warn("lighting engine rejected state", "state", s, "error", err)
		}
	}

	if c.hub != nil {
		c.hub.Broadcast("state", map[string]any{
			"state":     s,
			"change_id": changeID,
			"origin":    origin,
		})
	}
	if c.telemetry != nil {
		c.telemetry.WriteStateChange(from, s, origin)
	}

	if c.shouldPersist(opts) && c.store != nil {
		if err := c.store.SaveLastState(ctx, s); err != nil {
			c.logger.Error("persisting state failed", "state", s, "error", err)
		}
		rec := HistoryRecord{
			ChangeID:  changeID,
			FromState: from,
			ToState:   s,
			Origin:    origin,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.store.AppendHistory(ctx, rec); err != nil {
			c.logger.Error("recording state history failed", "error", err)
		}
	}

	if c.shouldBroadcast(opts) && c.mirror != nil {
		if err := c.publishState(s, changeID); err != nil {
			c.logger.Warn("broadcasting state failed", "error", err)
		}
	}

	return nil
}

// shouldPersist resolves the persist decision: explicit option wins,
// otherwise controllers persist and followers do not.
func (c *Coordinator) shouldPersist(opts ChangeOpts) bool {
	if opts.Persist != nil {
		return *opts.Persist
	}
	return c.role == RoleController
}

// shouldBroadcast resolves the broadcast decision the same way.
func (c *Coordinator) shouldBroadcast(opts ChangeOpts) bool {
	if opts.Broadcast != nil {
		return *opts.Broadcast
	}
	return c.role == RoleController
}

// publishState sends the retained mirror message for s.
func (c *Coordinator) publishState(s state.State, changeID string) error {
	payload, err := json.Marshal(mirrorPayload{
		State:    s,
		ChangeID: changeID,
		Origin:   c.instanceID,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding mirror payload: %w", err)
	}
	return c.mirror.Publish(mqtt.Topics{}.StateCurrent(), payload, mirrorQoS, true)
}

// Start wires the mirror subscriptions and restores the initial state.
//
// Controllers restore the last persisted state and answer follower
// requests by re-publishing the retained topic. Followers subscribe to the
// state topic and ask the controller for the current state in case the
// broker lost the retained message.
func (c *Coordinator) Start(ctx context.Context) error {
	if c.mirror != nil {
		if err := c.mirror.Subscribe(mqtt.Topics{}.StateCurrent(), mirrorQoS, c.handleMirror); err != nil {
			return fmt.Errorf("subscribing to state topic: %w", err)
		}
	}

	switch c.role {
	case RoleController:
		if c.mirror != nil {
			if err := c.mirror.Subscribe(mqtt.Topics{}.StateRequest(), mirrorQoS, c.handleRequest); err != nil {
				return fmt.Errorf("subscribing to request topic: %w", err)
			}
		}
		c.restore(ctx)
	case RoleFollower:
		if c.mirror != nil {
			if err := c.mirror.Publish(mqtt.Topics{}.StateRequest(), []byte(c.instanceID), mirrorQoS, false); err != nil {
				c.logger.Warn("requesting current state failed", "error", err)
			}
		}
	}

	return nil
}

// restore loads the last persisted state and applies it locally.
// The restored state is re-broadcast so the retained topic matches, but a
// missing store entry just means the installation starts in standby.
func (c *Coordinator) restore(ctx context.Context) {
	if c.store == nil {
		return
	}
	s, err := c.store.LoadLastState(ctx)
	if err != nil {
		c.logger.Info("no stored state to restore", "error", err)
		return
	}
	persist := false
	if err := c.apply(ctx, s, ChangeOpts{Origin: originRestore, Persist: &persist}); err != nil {
		c.logger.Warn("restoring state failed", "state", s, "error", err)
	}
}

// handleMirror applies a state payload from another instance.
func (c *Coordinator) handleMirror(_ string, payload []byte) error {
	var msg mirrorPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding mirror payload: %w", err)
	}
	if msg.Origin == c.instanceID {
		// Our own broadcast looping back.
		return nil
	}
	if !msg.State.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, msg.State)
	}

	off := false
	return c.apply(context.Background(), msg.State, ChangeOpts{
		Origin:    originMirror,
		Persist:   &off,
		Broadcast: &off,
	})
}

// handleRequest answers a follower's state request by re-publishing the
// retained current state.
func (c *Coordinator) handleRequest(_ string, _ []byte) error {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	return c.publishState(s, uuid.NewString())
}
