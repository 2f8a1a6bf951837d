package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/coordinator"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/config"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/logging"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/lighting"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StateCoordinator is the slice of the coordinator the API needs.
// Satisfied by *coordinator.Coordinator.
type StateCoordinator interface {
	Current() state.State
	Role() coordinator.Role
	ChangeState(ctx context.Context, s state.State, opts coordinator.ChangeOpts) error
}

// ParamsSource supplies the current interpolated animation parameters.
// Satisfied by *visual.Engine.
type ParamsSource interface {
	State() state.State
	Transitioning() bool
	Params() state.VisualParams
}

// LightingController manages the serial link to the LED strip.
// Satisfied by *lighting.Sender.
type LightingController interface {
	Connect() error
	Disconnect() error
	Status() lighting.Status
}

// HistorySource reads the persisted state change history.
// Satisfied by *coordinator.SQLiteStore.
type HistorySource interface {
	History(ctx context.Context, limit int) ([]coordinator.HistoryRecord, error)
}

// ActivityNotifier is told about visitor interaction so the inactivity
// watchdog can hold off. Satisfied by *coordinator.Watchdog.
type ActivityNotifier interface {
	Touch()
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Coordinator StateCoordinator
	Visual      ParamsSource
	Lighting    LightingController // optional: nil when no strip configured
	History     HistorySource      // optional: nil disables the history endpoint
	Activity    ActivityNotifier   // optional: nil when the watchdog is off
	ExternalHub *Hub               // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Swirl.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	coord       StateCoordinator
	visual      ParamsSource
	lighting    LightingController
	history     HistorySource
	activity    ActivityNotifier
	version     string
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, coordinator, visual engine)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if deps.Visual == nil {
		return nil, fmt.Errorf("visual engine is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		coord:    deps.Coordinator,
		visual:   deps.Visual,
		lighting: deps.Lighting,
		history:  deps.History,
		activity: deps.Activity,
		version:  deps.Version,
	}

	// Use externally-provided hub if available (needed when the coordinator
	// also requires the hub for WebSocket broadcasting).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// Create WebSocket hub (unless one was injected externally)
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
