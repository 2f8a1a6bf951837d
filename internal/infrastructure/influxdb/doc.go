// Package influxdb provides InfluxDB connectivity for Swirl.
//
// It wraps the official influxdb-client-go v2 library with Swirl-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Installation state transitions (which moods visitors trigger, when)
//   - LED strip link events (connects, disconnects, dropped links)
//
// Telemetry is optional; the installation runs identically with it off.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "swirl",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteStateChange(state.StateStandby, state.StateArrival, "api")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This keeps the hot state-change path free of network stalls.
package influxdb
