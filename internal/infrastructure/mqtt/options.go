package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from config.
//
// This configures:
//   - Broker URL (explicit url, or tcp:// / ssl:// from host and port)
//   - Client ID and credentials
//   - Auto-reconnect with exponential backoff
//   - TLS configuration (if the broker address is encrypted)
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig) (*pahomqtt.ClientOptions, error) {
	brokerURL, err := cfg.BrokerURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.Broker.ClientID)

	if username, password := cfg.Credentials(); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	// Retained state lives on the broker, so no persistent session is needed.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.UsesTLS() {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts, nil
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The broker publishes the will, retained, if the bridge drops off the
// network without a clean disconnect.
func configureLWT(opts *pahomqtt.ClientOptions, statusTopic, clientID string) {
	if statusTopic == "" {
		return
	}
	opts.SetWill(statusTopic, buildStatusPayload("offline", clientID, "unexpected_disconnect"), 1, true)
}

// buildStatusPayload creates the JSON payload for availability messages.
func buildStatusPayload(status, clientID, reason string) string {
	if reason == "" {
		return fmt.Sprintf(
			`{"status":"%s","client_id":"%s","timestamp":"%s"}`,
			status, clientID, time.Now().UTC().Format(time.RFC3339),
		)
	}
	return fmt.Sprintf(
		`{"status":"%s","client_id":"%s","reason":"%s","timestamp":"%s"}`,
		status, clientID, reason, time.Now().UTC().Format(time.RFC3339),
	)
}
