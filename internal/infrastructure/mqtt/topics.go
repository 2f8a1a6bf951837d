package mqtt

import "fmt"

// Topic prefixes for the Swirl MQTT namespace.
//
// The hierarchy is small and flat: swirl/state/* carries the installation
// state mirror, swirl/system/* carries instance liveness.
const (
	// TopicPrefixState is the base for state mirror topics.
	TopicPrefixState = "swirl/state"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "swirl/system"
)

// Topics provides builders for Swirl MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.StateCurrent() // "swirl/state/current"
type Topics struct{}

// StateCurrent returns the topic carrying the authoritative installation
// state. The controller publishes here with the retained flag set so that
// late-joining followers receive the current state immediately.
//
// Example: swirl/state/current
func (Topics) StateCurrent() string {
	return fmt.Sprintf("%s/current", TopicPrefixState)
}

// StateRequest returns the topic a follower publishes to when it wants the
// controller to re-announce the current state.
//
// Example: swirl/state/request
func (Topics) StateRequest() string {
	return fmt.Sprintf("%s/request", TopicPrefixState)
}

// SystemStatus returns the instance liveness topic, used for the broker
// last-will message and online announcements.
//
// Example: swirl/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllStateTopics returns a pattern matching the whole state hierarchy.
//
// Pattern: swirl/state/#
func (Topics) AllStateTopics() string {
	return fmt.Sprintf("%s/#", TopicPrefixState)
}

// AllTopics returns a pattern matching all Swirl topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: swirl/#
func (Topics) AllTopics() string {
	return "swirl/#"
}
