package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"LYNC2MQTT_LYNC_HOST", "LYNC_HOST",
		"LYNC2MQTT_LYNC_PORT", "LYNC_PORT",
		"LYNC2MQTT_MQTT_URL", "MQTT_BROKER_URL",
		"LYNC2MQTT_MQTT_HOST", "LYNC2MQTT_MQTT_USERNAME", "LYNC2MQTT_MQTT_PASSWORD",
		"LYNC2MQTT_TOPIC_PREFIX",
		"LYNC2MQTT_DISCOVERY_ENABLED", "HA_DISCOVERY_ENABLED",
		"LYNC2MQTT_DISCOVERY_PREFIX", "HA_DISCOVERY_PREFIX",
		"LYNC2MQTT_API_ENABLED", "LYNC2MQTT_API_PORT",
		"LYNC2MQTT_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `
lync:
  host: "10.0.0.25"
  port: 10006
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
bridge:
  topic_prefix: "audio"
discovery:
  enabled: false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Lync.Address() != "10.0.0.25:10006" {
		t.Errorf("Lync.Address() = %q, want %q", cfg.Lync.Address(), "10.0.0.25:10006")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Bridge.TopicPrefix != "audio" {
		t.Errorf("Bridge.TopicPrefix = %q, want %q", cfg.Bridge.TopicPrefix, "audio")
	}
	if cfg.Discovery.Enabled {
		t.Error("Discovery.Enabled = true, want false")
	}
	// Defaults survive for keys the file omits.
	if cfg.Discovery.Prefix != "homeassistant" {
		t.Errorf("Discovery.Prefix = %q, want default", cfg.Discovery.Prefix)
	}
	if cfg.Bridge.LaneQueueSize != 16 {
		t.Errorf("Bridge.LaneQueueSize = %d, want 16", cfg.Bridge.LaneQueueSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoadOptional_MissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LYNC_HOST", "192.168.1.50")
	t.Setenv("LYNC_PORT", "10007")
	t.Setenv("MQTT_BROKER_URL", "mqtt://broker.lan")

	cfg, err := LoadOptional("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if cfg.Lync.Address() != "192.168.1.50:10007" {
		t.Errorf("Lync.Address() = %q", cfg.Lync.Address())
	}
	addr, err := cfg.MQTT.BrokerURL()
	if err != nil {
		t.Fatalf("BrokerURL() error = %v", err)
	}
	if addr != "tcp://broker.lan:1883" {
		t.Errorf("BrokerURL() = %q, want %q", addr, "tcp://broker.lan:1883")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `
lync:
  host: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty lync.host, got nil")
	}
	if !strings.Contains(err.Error(), "lync.host") {
		t.Errorf("error = %v, want mention of lync.host", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `
lync:
  host: "file-host"
discovery:
  prefix: "file-prefix"
`)
	t.Setenv("LYNC_HOST", "legacy-host")
	t.Setenv("LYNC2MQTT_LYNC_HOST", "prefixed-host")
	t.Setenv("HA_DISCOVERY_ENABLED", "FALSE")
	t.Setenv("HA_DISCOVERY_PREFIX", "ha")
	t.Setenv("LYNC2MQTT_MQTT_PASSWORD", "secret")
	t.Setenv("LYNC2MQTT_API_ENABLED", "true")
	t.Setenv("LYNC2MQTT_API_PORT", "9090")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Lync.Host != "prefixed-host" {
		t.Errorf("Lync.Host = %q, want prefixed form to win", cfg.Lync.Host)
	}
	if cfg.Discovery.Enabled {
		t.Error("Discovery.Enabled = true, want false")
	}
	if cfg.Discovery.Prefix != "ha" {
		t.Errorf("Discovery.Prefix = %q, want %q", cfg.Discovery.Prefix, "ha")
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password not applied")
	}
	if !cfg.API.Enabled || cfg.API.Port != 9090 {
		t.Errorf("API = %+v, want enabled on 9090", cfg.API)
	}
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("LYNC_HOST", "controller")
	t.Setenv("LYNC_PORT", "not-a-port")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for non-numeric LYNC_PORT, got nil")
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Lync.Host = "10.0.0.25"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing lync host", mutate: func(c *Config) { c.Lync.Host = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.Lync.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.Lync.Port = 70000 }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "missing client id", mutate: func(c *Config) { c.MQTT.Broker.ClientID = "" }, wantErr: true},
		{name: "bad broker url", mutate: func(c *Config) { c.MQTT.Broker.URL = "http://broker" }, wantErr: true},
		{name: "wildcard prefix", mutate: func(c *Config) { c.Bridge.TopicPrefix = "lync/#" }, wantErr: true},
		{name: "empty prefix", mutate: func(c *Config) { c.Bridge.TopicPrefix = "" }, wantErr: true},
		{name: "api port ignored when disabled", mutate: func(c *Config) { c.API.Port = 0 }},
		{
			name: "api enabled with bad port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
		{name: "zero lane queue", mutate: func(c *Config) { c.Bridge.LaneQueueSize = 0 }, wantErr: true},
		{
			name:    "reconnect max below initial",
			mutate:  func(c *Config) { c.Lync.Reconnect.MaxDelay = 1 },
			wantErr: true,
		},
		{
			name:    "discovery enabled without prefix",
			mutate:  func(c *Config) { c.Discovery.Prefix = "" },
			wantErr: true,
		},
		{
			name: "discovery disabled without prefix",
			mutate: func(c *Config) {
				c.Discovery.Enabled = false
				c.Discovery.Prefix = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMQTTConfig_BrokerURL(t *testing.T) {
	tests := []struct {
		name    string
		broker  MQTTBrokerConfig
		want    string
		wantErr bool
	}{
		{name: "host and port", broker: MQTTBrokerConfig{Host: "localhost", Port: 1883}, want: "tcp://localhost:1883"},
		{name: "host with tls", broker: MQTTBrokerConfig{Host: "localhost", Port: 8883, TLS: true}, want: "ssl://localhost:8883"},
		{name: "mqtt scheme", broker: MQTTBrokerConfig{URL: "mqtt://10.0.0.2"}, want: "tcp://10.0.0.2:1883"},
		{name: "mqtts scheme", broker: MQTTBrokerConfig{URL: "mqtts://broker:9999"}, want: "ssl://broker:9999"},
		{name: "credentials stripped", broker: MQTTBrokerConfig{URL: "mqtt://u:p@broker:1884"}, want: "tcp://broker:1884"},
		{name: "websocket keeps path", broker: MQTTBrokerConfig{URL: "ws://broker/mqtt"}, want: "ws://broker:80/mqtt"},
		{name: "unsupported scheme", broker: MQTTBrokerConfig{URL: "http://broker"}, wantErr: true},
		{name: "no host", broker: MQTTBrokerConfig{URL: "mqtt://"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MQTTConfig{Broker: tt.broker}.BrokerURL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("BrokerURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BrokerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMQTTConfig_Credentials(t *testing.T) {
	m := MQTTConfig{Broker: MQTTBrokerConfig{URL: "mqtt://alice:pw@broker"}}
	if u, p := m.Credentials(); u != "alice" || p != "pw" {
		t.Errorf("Credentials() = %q, %q, want alice, pw", u, p)
	}

	m.Auth = MQTTAuthConfig{Username: "bob", Password: "x"}
	if u, p := m.Credentials(); u != "bob" || p != "x" {
		t.Errorf("Credentials() = %q, %q, want explicit auth to win", u, p)
	}
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.Auth.Password = "hunter2"
	cfg.MQTT.Broker.URL = "mqtt://alice:pw@broker:1883"

	out := cfg.Redacted()
	if out.MQTT.Auth.Password == "hunter2" {
		t.Error("Redacted() left auth password visible")
	}
	if strings.Contains(out.MQTT.Broker.URL, "pw@") {
		t.Errorf("Redacted() left URL password visible: %s", out.MQTT.Broker.URL)
	}
	if cfg.MQTT.Auth.Password != "hunter2" {
		t.Error("Redacted() mutated the original")
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Lync.GetConnectTimeout(); got != time.Duration(cfg.Lync.ConnectTimeout)*time.Second {
		t.Errorf("GetConnectTimeout() = %v", got)
	}
	if got := cfg.Lync.Reconnect.GetInitialDelay(); got != 5*time.Second {
		t.Errorf("GetInitialDelay() = %v, want 5s", got)
	}
	if got := cfg.Lync.Reconnect.GetMaxDelay(); got != 2*time.Minute {
		t.Errorf("GetMaxDelay() = %v, want 2m", got)
	}
}
