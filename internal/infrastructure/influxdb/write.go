package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
)

// WriteStateChange records an installation state transition.
//
// This is the primary measurement for understanding how visitors move
// the installation through its moods over a day. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - from: The state the installation left
//   - to: The state it entered
//   - origin: What requested the change ("api", "watchdog", "mirror", "restore")
//
// Example:
//
//	client.WriteStateChange(state.StateStandby, state.StateArrival, "api")
func (c *Client) WriteStateChange(from, to state.State, origin string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_changes",
		map[string]string{
			"from":   string(from),
			"to":     string(to),
			"origin": origin,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStripEvent records an LED strip link event.
//
// Used for tracking serial link health: connects, disconnects, dropped
// links mid fade.
//
// Parameters:
//   - event: Event name (e.g., "connected", "disconnected", "link_dropped")
//   - device: The serial device path
func (c *Client) WriteStripEvent(event, device string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"strip_events",
		map[string]string{
			"event":  event,
			"device": device,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "swirl-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
