// Package coordinator owns the authoritative exhibition state.
//
// A Coordinator receives state-change requests (from the HTTP API, from the
// watchdog, or mirrored from another instance over MQTT), applies them to
// the visual and lighting engines, and optionally persists and broadcasts
// them. One instance per deployment runs in the controller role and is the
// only origin of state changes; any number of followers mirror it.
//
// # Mirroring
//
// The controller publishes every change to the retained state topic, so a
// follower that starts late immediately receives the current state. Each
// payload carries the origin instance ID; a coordinator ignores payloads
// carrying its own ID, which breaks the publish/receive loop without any
// further bookkeeping.
//
// # Watchdog
//
// The controller arms an inactivity watchdog: when no activity has been
// recorded for the configured idle timeout (default five minutes) the
// coordinator forces standby and persists it. Followers never arm the
// watchdog. Activity is recorded by the API layer on every user-originated
// request via Touch.
package coordinator
