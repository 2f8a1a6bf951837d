// Package mqtt provides MQTT client connectivity for Swirl.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Swirl uses MQTT to mirror the installation state between instances.
// The controller publishes the authoritative state (retained) and
// followers subscribe to it, so every surface in the space shows the
// same mood at the same time.
//
//	Controller ↔ MQTT Broker ↔ Followers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Follow the installation state
//	err = client.Subscribe(mqtt.Topics{}.StateCurrent(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Announce a state change (controller only)
//	client.Publish(mqtt.Topics{}.StateCurrent(), []byte(`{"state":"arrival"}`), 1, true)
package mqtt
