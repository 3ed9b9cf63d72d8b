// Package mqtt provides MQTT client connectivity for lync2mqtt.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - The bridge's topic hierarchy (see Topics)
//
// # Architecture
//
//	HTD Lync controller ↔ lync2mqtt ↔ MQTT broker ↔ Home Assistant / automations
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: cfg.Bridge.TopicPrefix}
//	client, err := mqtt.NewClient(cfg.MQTT, topics.Status())
//	if err != nil {
//	    return err
//	}
//	client.SetOnConnect(func() { log.Print("connected") })
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.AllZonesCommand("volume"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
// Register SetOnConnect before Connect: the callback fires on the first
// connection as well as on every reconnect.
package mqtt
