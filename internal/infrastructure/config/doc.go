// Package config handles loading and validating lync2mqtt configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - Use Config.Redacted before printing a loaded configuration
//
// Usage:
//
//	cfg, err := config.Load("/etc/lync2mqtt/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Lync.Address())
//
// The controller and broker can also be configured purely from the
// environment (LYNC_HOST, LYNC_PORT, MQTT_BROKER_URL, HA_DISCOVERY_ENABLED,
// HA_DISCOVERY_PREFIX) by passing an empty path.
package config
