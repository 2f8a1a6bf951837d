// Package api implements the HTTP REST API and WebSocket server for Swirl.
//
// This package provides:
//   - REST endpoints for reading and requesting installation state
//   - Live animation parameter reads for rendering surfaces
//   - LED strip link control (connect, disconnect, status)
//   - WebSocket hub for real-time state change broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between touch surfaces and the coordinator. A state
// request flows through the coordinator, which fans it out to the visual
// engine, the lighting engine, persistence, and the MQTT mirror; the
// resulting change is broadcast back to WebSocket clients on the "state"
// channel.
//
// Every state POST also feeds the inactivity watchdog, so visitor
// interaction is what keeps the installation out of standby.
//
// # Graceful Degradation
//
// The server operates without MQTT or a connected strip. State requests
// still apply locally; only mirroring and physical lighting are affected.
package api
