package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for lync2mqtt.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Lync      LyncConfig      `yaml:"lync"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LyncConfig contains the controller's TCP endpoint and connection tuning.
type LyncConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ConnectTimeout bounds a single dial attempt (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// WriteTimeout bounds a single frame write (seconds).
	WriteTimeout int `yaml:"write_timeout"`

	// Reconnect controls the backoff between dial attempts after the link drops.
	Reconnect LyncReconnectConfig `yaml:"reconnect"`
}

// LyncReconnectConfig contains controller reconnection settings (seconds).
type LyncReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// When URL is set it takes precedence over Host/Port/TLS. Accepted schemes
// are mqtt, mqtts, tcp, ssl, ws and wss.
type MQTTBrokerConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BridgeConfig contains topic layout and runtime settings for the bridge core.
type BridgeConfig struct {
	// TopicPrefix is the root of every state and command topic (e.g. "lync").
	TopicPrefix string `yaml:"topic_prefix"`

	// HealthInterval is the health publish period in seconds. 0 disables periodic reports.
	HealthInterval int `yaml:"health_interval"`

	// LaneQueueSize is the per-zone command backlog before new intents are dropped.
	LaneQueueSize int `yaml:"lane_queue_size"`
}

// DiscoveryConfig contains Home Assistant MQTT discovery settings.
type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Prefix      string `yaml:"prefix"`
	DeviceGroup string `yaml:"device_group"`
	DeviceName  string `yaml:"device_name"`
}

// APIConfig contains the read-only HTTP status server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
//
// Format is "json", "text", or "auto" (text on a terminal, JSON otherwise).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path skips step 2, so the bridge can run from environment
// variables alone. A path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like Load but treats a missing file as "no file".
// It is used for the default config location, which need not exist.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Lync: LyncConfig{
			Port:           10006,
			ConnectTimeout: 10,
			WriteTimeout:   5,
			Reconnect: LyncReconnectConfig{
				InitialDelay: 5,
				MaxDelay:     120,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lync2mqtt",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Bridge: BridgeConfig{
			TopicPrefix:    "lync",
			HealthInterval: 30,
			LaneQueueSize:  16,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			Prefix:      "homeassistant",
			DeviceGroup: "htd_lync",
			DeviceName:  "HTD Lync Audio System",
		},
		API: APIConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
//
// Two families are honoured: LYNC2MQTT_SECTION_KEY, and the bare names used by
// earlier deployments (LYNC_HOST, LYNC_PORT, MQTT_BROKER_URL,
// HA_DISCOVERY_ENABLED, HA_DISCOVERY_PREFIX). The prefixed form wins.
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	// Controller
	if v := firstEnv("LYNC2MQTT_LYNC_HOST", "LYNC_HOST"); v != "" {
		cfg.Lync.Host = v
	}
	if v := firstEnv("LYNC2MQTT_LYNC_PORT", "LYNC_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid lync port %q", v))
		} else {
			cfg.Lync.Port = port
		}
	}

	// MQTT
	if v := firstEnv("LYNC2MQTT_MQTT_URL", "MQTT_BROKER_URL"); v != "" {
		cfg.MQTT.Broker.URL = v
	}
	if v := os.Getenv("LYNC2MQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LYNC2MQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LYNC2MQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Bridge
	if v := os.Getenv("LYNC2MQTT_TOPIC_PREFIX"); v != "" {
		cfg.Bridge.TopicPrefix = v
	}

	// Discovery
	if v := firstEnv("LYNC2MQTT_DISCOVERY_ENABLED", "HA_DISCOVERY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid discovery flag %q", v))
		} else {
			cfg.Discovery.Enabled = enabled
		}
	}
	if v := firstEnv("LYNC2MQTT_DISCOVERY_PREFIX", "HA_DISCOVERY_PREFIX"); v != "" {
		cfg.Discovery.Prefix = v
	}

	// API
	if v := os.Getenv("LYNC2MQTT_API_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid api flag %q", v))
		} else {
			cfg.API.Enabled = enabled
		}
	}
	if v := os.Getenv("LYNC2MQTT_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid api port %q", v))
		} else {
			cfg.API.Port = port
		}
	}

	// Logging
	if v := os.Getenv("LYNC2MQTT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// firstEnv returns the value of the first non-empty variable in names.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Controller validation
	if c.Lync.Host == "" {
		errs = append(errs, "lync.host is required (set LYNC_HOST environment variable)")
	}
	if c.Lync.Port < 1 || c.Lync.Port > 65535 {
		errs = append(errs, "lync.port must be between 1 and 65535")
	}
	if c.Lync.Reconnect.InitialDelay < 0 || c.Lync.Reconnect.MaxDelay < c.Lync.Reconnect.InitialDelay {
		errs = append(errs, "lync.reconnect delays must satisfy 0 <= initial_delay <= max_delay")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.Broker.URL != "" {
		if _, err := c.MQTT.BrokerURL(); err != nil {
			errs = append(errs, err.Error())
		}
	} else if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host or mqtt.broker.url is required")
	}

	// Bridge validation
	if c.Bridge.TopicPrefix == "" || strings.ContainsAny(c.Bridge.TopicPrefix, "+#") {
		errs = append(errs, "bridge.topic_prefix must be non-empty and contain no wildcards")
	}
	if c.Bridge.HealthInterval < 0 {
		errs = append(errs, "bridge.health_interval cannot be negative")
	}
	if c.Bridge.LaneQueueSize < 1 {
		errs = append(errs, "bridge.lane_queue_size must be at least 1")
	}

	// Discovery validation
	if c.Discovery.Enabled {
		if c.Discovery.Prefix == "" {
			errs = append(errs, "discovery.prefix is required when discovery is enabled")
		}
		if c.Discovery.DeviceGroup == "" {
			errs = append(errs, "discovery.device_group is required when discovery is enabled")
		}
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BrokerURL returns the broker address in the form paho expects.
//
// mqtt:// and mqtts:// are rewritten to tcp:// and ssl://, and a missing port
// is filled with the scheme's default.
func (m MQTTConfig) BrokerURL() (string, error) {
	if m.Broker.URL == "" {
		scheme := "tcp"
		if m.Broker.TLS {
			scheme = "ssl"
		}
		return fmt.Sprintf("%s://%s:%d", scheme, m.Broker.Host, m.Broker.Port), nil
	}

	u, err := url.Parse(m.Broker.URL)
	if err != nil {
		return "", fmt.Errorf("mqtt.broker.url is invalid: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("mqtt.broker.url %q has no host", m.Broker.URL)
	}

	var scheme, port string
	switch strings.ToLower(u.Scheme) {
	case "mqtt", "tcp":
		scheme, port = "tcp", "1883"
	case "mqtts", "ssl", "tls":
		scheme, port = "ssl", "8883"
	case "ws":
		scheme, port = "ws", "80"
	case "wss":
		scheme, port = "wss", "443"
	default:
		return "", fmt.Errorf("mqtt.broker.url scheme %q is not supported", u.Scheme)
	}
	if p := u.Port(); p != "" {
		port = p
	}

	out := fmt.Sprintf("%s://%s:%s", scheme, u.Hostname(), port)
	if scheme == "ws" || scheme == "wss" {
		out += u.EscapedPath()
	}
	return out, nil
}

// Credentials returns the broker username and password. Explicit auth settings
// win over userinfo embedded in the broker URL.
func (m MQTTConfig) Credentials() (username, password string) {
	if m.Auth.Username != "" {
		return m.Auth.Username, m.Auth.Password
	}
	if m.Broker.URL == "" {
		return "", ""
	}
	u, err := url.Parse(m.Broker.URL)
	if err != nil || u.User == nil {
		return "", ""
	}
	password, _ = u.User.Password()
	return u.User.Username(), password
}

// UsesTLS reports whether the effective broker address is encrypted.
func (m MQTTConfig) UsesTLS() bool {
	addr, err := m.BrokerURL()
	if err != nil {
		return m.Broker.TLS
	}
	return strings.HasPrefix(addr, "ssl://") || strings.HasPrefix(addr, "wss://")
}

// Address returns the controller's host:port.
func (l LyncConfig) Address() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// GetConnectTimeout returns the controller dial timeout as a Duration.
func (l LyncConfig) GetConnectTimeout() time.Duration {
	return time.Duration(l.ConnectTimeout) * time.Second
}

// GetWriteTimeout returns the controller write timeout as a Duration.
func (l LyncConfig) GetWriteTimeout() time.Duration {
	return time.Duration(l.WriteTimeout) * time.Second
}

// GetInitialDelay returns the first reconnect delay as a Duration.
func (r LyncReconnectConfig) GetInitialDelay() time.Duration {
	return time.Duration(r.InitialDelay) * time.Second
}

// GetMaxDelay returns the reconnect delay ceiling as a Duration.
func (r LyncReconnectConfig) GetMaxDelay() time.Duration {
	return time.Duration(r.MaxDelay) * time.Second
}

// GetHealthInterval returns the health publish period as a Duration.
func (b BridgeConfig) GetHealthInterval() time.Duration {
	return time.Duration(b.HealthInterval) * time.Second
}

// Redacted returns a copy with secrets masked, for printing.
func (c Config) Redacted() Config {
	out := c
	if out.MQTT.Auth.Password != "" {
		out.MQTT.Auth.Password = "********"
	}
	if u, err := url.Parse(out.MQTT.Broker.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "********")
			out.MQTT.Broker.URL = u.String()
		}
	}
	return out
}
