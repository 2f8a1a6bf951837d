package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/coordinator"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/config"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/logging"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/lighting"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// ===== Test Mocks =====

// mockCoordinator is a hand-rolled StateCoordinator for handler tests.
type mockCoordinator struct {
	current   state.State
	role      coordinator.Role
	changeErr error

	lastState  state.State
	lastOrigin string
	calls      int
}

func (m *mockCoordinator) Current() state.State   { return m.current }
func (m *mockCoordinator) Role() coordinator.Role { return m.role }

func (m *mockCoordinator) ChangeState(_ context.Context, s state.State, opts coordinator.ChangeOpts) error {
	m.calls++
	if m.changeErr != nil {
		return m.changeErr
	}
	m.lastState = s
	m.lastOrigin = opts.Origin
	m.current = s
	return nil
}

// mockVisual is a fixed-output ParamsSource.
type mockVisual struct {
	state         state.State
	transitioning bool
	params        state.VisualParams
}

func (m *mockVisual) State() state.State         { return m.state }
func (m *mockVisual) Transitioning() bool        { return m.transitioning }
func (m *mockVisual) Params() state.VisualParams { return m.params }

// mockLighting records Connect/Disconnect calls.
type mockLighting struct {
	status        lighting.Status
	connectErr    error
	disconnectErr error
	connects      int
	disconnects   int
}

func (m *mockLighting) Connect() error {
	m.connects++
	if m.connectErr != nil {
		return m.connectErr
	}
	m.status.Connected = true
	return nil
}

func (m *mockLighting) Disconnect() error {
	m.disconnects++
	if m.disconnectErr != nil {
		return m.disconnectErr
	}
	m.status.Connected = false
	return nil
}

func (m *mockLighting) Status() lighting.Status { return m.status }

// mockHistory returns canned history records.
type mockHistory struct {
	records []coordinator.HistoryRecord
	err     error

	lastLimit int
}

func (m *mockHistory) History(_ context.Context, limit int) ([]coordinator.HistoryRecord, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// mockActivity counts Touch calls.
type mockActivity struct {
	touches int
}

func (m *mockActivity) Touch() { m.touches++ }

// ===== Test Helpers =====

type serverMocks struct {
	coord    *mockCoordinator
	visual   *mockVisual
	lighting *mockLighting
	history  *mockHistory
	activity *mockActivity
}

// testServer builds a Server over hand mocks and returns both.
func testServer(t *testing.T) (*Server, *serverMocks) {
	t.Helper()

	mocks := &serverMocks{
		coord: &mockCoordinator{
			current: state.StateStandby,
			role:    coordinator.RoleController,
		},
		visual: &mockVisual{
			state:  state.StateStandby,
			params: state.Visual(state.StateStandby),
		},
		lighting: &mockLighting{
			status: lighting.Status{State: state.StateStandby},
		},
		history:  &mockHistory{},
		activity: &mockActivity{},
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:      log,
		Coordinator: mocks.coord,
		Visual:      mocks.visual,
		Lighting:    mocks.lighting,
		History:     mocks.history,
		Activity:    mocks.activity,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Handlers that broadcast need a live hub.
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv, mocks
}

// doRequest runs an HTTP request through the full router.
func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

// ===== Constructor =====

func TestNew_MissingDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	coord := &mockCoordinator{current: state.StateStandby}
	visual := &mockVisual{state: state.StateStandby}

	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Coordinator: coord, Visual: visual}},
		{"no coordinator", Deps{Logger: log, Visual: visual}},
		{"no visual engine", Deps{Logger: log, Coordinator: coord}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("expected error for missing dependency, got nil")
			}
		})
	}
}

func TestNew_OptionalDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Logger:      log,
		Coordinator: &mockCoordinator{current: state.StateStandby},
		Visual:      &mockVisual{state: state.StateStandby},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if srv.lighting != nil || srv.history != nil || srv.activity != nil {
		t.Error("optional dependencies should remain nil when not provided")
	}
}

// ===== Health =====

func TestHandleHealth(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.coord.current = state.StateArrival
	mocks.coord.role = coordinator.RoleFollower

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
	if body["role"] != "follower" {
		t.Errorf("role = %v, want follower", body["role"])
	}
	if body["state"] != "arrival" {
		t.Errorf("state = %v, want arrival", body["state"])
	}
}

// ===== State Endpoints =====

func TestHandleGetState(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.coord.current = state.StateAdaptive

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["state"] != "adaptive" {
		t.Errorf("state = %v, want adaptive", body["state"])
	}
}

func TestHandleSetState(t *testing.T) {
	srv, mocks := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"alert"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	if mocks.coord.lastState != state.StateAlert {
		t.Errorf("coordinator received state %q, want alert", mocks.coord.lastState)
	}
	if mocks.coord.lastOrigin != "api" {
		t.Errorf("coordinator received origin %q, want api", mocks.coord.lastOrigin)
	}

	body := decodeBody(t, rec)
	if body["state"] != "alert" {
		t.Errorf("response state = %v, want alert", body["state"])
	}
}

func TestHandleSetState_CaseInsensitive(t *testing.T) {
	srv, mocks := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"  Connection "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if mocks.coord.lastState != state.StateConnection {
		t.Errorf("coordinator received state %q, want connection", mocks.coord.lastState)
	}
}

func TestHandleSetState_InvalidJSON(t *testing.T) {
	srv, mocks := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if mocks.coord.calls != 0 {
		t.Error("coordinator should not be called for malformed JSON")
	}
}

func TestHandleSetState_UnknownState(t *testing.T) {
	srv, mocks := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"disco"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if mocks.coord.calls != 0 {
		t.Error("coordinator should not be called for an unknown state")
	}
}

func TestHandleSetState_Follower(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.coord.changeErr = coordinator.ErrFollowerChange

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"alert"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	var apiErr Error
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Code != ErrCodeForbidden {
		t.Errorf("error code = %q, want %q", apiErr.Code, ErrCodeForbidden)
	}
}

func TestHandleSetState_CoordinatorFailure(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.coord.changeErr = errors.New("db locked")

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"alert"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandleSetState_TouchesActivity(t *testing.T) {
	srv, mocks := testServer(t)

	doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"standby"}`)
	if mocks.activity.touches != 1 {
		t.Errorf("activity touches = %d, want 1", mocks.activity.touches)
	}

	// Invalid requests should not count as visitor activity.
	doRequest(t, srv, http.MethodPost, "/api/v1/state", `{"state":"disco"}`)
	if mocks.activity.touches != 1 {
		t.Errorf("activity touches after invalid request = %d, want 1", mocks.activity.touches)
	}
}

func TestHandleGetParams(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.visual.state = state.StateAlert
	mocks.visual.transitioning = true
	mocks.visual.params = state.Visual(state.StateAlert)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/params", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["state"] != "alert" {
		t.Errorf("state = %v, want alert", body["state"])
	}
	if body["transitioning"] != true {
		t.Error("transitioning = false, want true")
	}
	if _, ok := body["params"].(map[string]any); !ok {
		t.Error("params missing from response")
	}
	if _, ok := body["led"].(map[string]any); !ok {
		t.Error("led missing from response")
	}
}

// ===== History Endpoint =====

func TestHandleStateHistory(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.history.records = []coordinator.HistoryRecord{
		{ChangeID: "c2", FromState: "arrival", ToState: "standby", Origin: "watchdog", CreatedAt: time.Now()},
		{ChangeID: "c1", FromState: "standby", ToState: "arrival", Origin: "api", CreatedAt: time.Now().Add(-time.Minute)},
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	if mocks.history.lastLimit != defaultHistoryLimit {
		t.Errorf("default limit = %d, want %d", mocks.history.lastLimit, defaultHistoryLimit)
	}
}

func TestHandleStateHistory_LimitParam(t *testing.T) {
	srv, mocks := testServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"explicit limit", "?limit=10", http.StatusOK, 10},
		{"limit clamped to max", "?limit=9999", http.StatusOK, maxHistoryLimit},
		{"zero limit rejected", "?limit=0", http.StatusBadRequest, 0},
		{"negative limit rejected", "?limit=-5", http.StatusBadRequest, 0},
		{"non-numeric limit rejected", "?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks.history.lastLimit = 0
			rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/history"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && mocks.history.lastLimit != tt.wantLimit {
				t.Errorf("limit passed = %d, want %d", mocks.history.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestHandleStateHistory_Disabled(t *testing.T) {
	srv, _ := testServer(t)
	srv.history = nil

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/history", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleStateHistory_QueryFailure(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.history.err = errors.New("db gone")

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

// ===== Lighting Endpoints =====

func TestHandleLightingConnect(t *testing.T) {
	srv, mocks := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/lighting/connect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if mocks.lighting.connects != 1 {
		t.Errorf("connects = %d, want 1", mocks.lighting.connects)
	}

	body := decodeBody(t, rec)
	if body["connected"] != true {
		t.Error("connected = false after successful connect")
	}
}

func TestHandleLightingConnect_Failure(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.lighting.connectErr = lighting.ErrConnectionFailed

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/lighting/connect", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestHandleLightingDisconnect(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.lighting.status.Connected = true

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/lighting/disconnect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if mocks.lighting.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", mocks.lighting.disconnects)
	}
}

func TestHandleLightingStatus(t *testing.T) {
	srv, mocks := testServer(t)
	mocks.lighting.status = lighting.Status{
		Connected: true,
		State:     state.StateArrival,
		Fading:    true,
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/lighting/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["connected"] != true {
		t.Errorf("connected = %v, want true", body["connected"])
	}
	if body["state"] != "arrival" {
		t.Errorf("state = %v, want arrival", body["state"])
	}
	if body["fading"] != true {
		t.Errorf("fading = %v, want true", body["fading"])
	}
}

func TestHandleLighting_NotConfigured(t *testing.T) {
	srv, _ := testServer(t)
	srv.lighting = nil

	for _, ep := range []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/lighting/connect", http.StatusNotFound},
		{http.MethodPost, "/api/v1/lighting/disconnect", http.StatusNotFound},
		{http.MethodGet, "/api/v1/lighting/status", http.StatusOK},
	} {
		rec := doRequest(t, srv, ep.method, ep.path, "")
		if rec.Code != ep.want {
			t.Errorf("%s %s: status = %d, want %d", ep.method, ep.path, rec.Code, ep.want)
		}
	}
}

// ===== Middleware =====

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}

	// A client-supplied ID should be echoed back.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "my-id-123")
	rec = httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "my-id-123" {
		t.Errorf("X-Request-ID = %q, want my-id-123", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want the request origin", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSMiddleware_RestrictedOrigins(t *testing.T) {
	srv, _ := testServer(t)
	srv.cfg.CORS.AllowedOrigins = []string{"http://kiosk.local"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin should not receive CORS headers")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, _ := testServer(t)

	// A nil ParamsSource makes the params handler panic; the recovery
	// middleware must turn that into a 500 instead of killing the server.
	srv.visual = nil

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/state/params", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d after panic", rec.Code, http.StatusInternalServerError)
	}
}

// ===== Lifecycle =====

func TestServerStartClose(t *testing.T) {
	srv, _ := testServer(t)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestHealthCheck_NotStarted(t *testing.T) {
	srv, _ := testServer(t)
	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck should fail before Start()")
	}
}

func TestClose_NotStarted(t *testing.T) {
	srv, _ := testServer(t)
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start() should be a no-op, got: %v", err)
	}
}
