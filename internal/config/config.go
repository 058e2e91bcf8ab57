package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radiopm/radiopm-server/internal/ps"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	API         APIConfig         `yaml:"api"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	PowerSave   PowerSaveConfig   `yaml:"powersave"`
	Integration IntegrationConfig `yaml:"integration"`
}

// ServerConfig represents server identification
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents REST API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PowerSaveConfig overrides the default power-save parameters new
// adapters are registered with. Zero fields keep the built-in
// defaults.
type PowerSaveConfig struct {
	SleepType             string `yaml:"sleep_type"` // lp | ulp
	ListenInterval        uint16 `yaml:"listen_interval"`
	DeepSleepWakeupPeriod uint16 `yaml:"deep_sleep_wakeup_period"`
	MonitorInterval       uint16 `yaml:"monitor_interval"`
}

// IntegrationConfig represents outbound event forwarding configuration
type IntegrationConfig struct {
	MQTT    MQTTIntegrationConfig `yaml:"mqtt"`
	Webhook WebhookConfig         `yaml:"webhook"`
}

// MQTTIntegrationConfig represents the MQTT event mirror
type MQTTIntegrationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// WebhookConfig represents the HTTP event webhook
type WebhookConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply environment overrides
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}
}

// validate checks settings that would otherwise fail at runtime
func (c *Config) validate() error {
	switch c.PowerSave.SleepType {
	case "", "lp", "ulp":
	default:
		return fmt.Errorf("invalid powersave sleep_type: %s", c.PowerSave.SleepType)
	}

	if c.Integration.MQTT.Enabled && c.Integration.MQTT.Broker == "" {
		return fmt.Errorf("mqtt integration enabled without broker")
	}
	if c.Integration.Webhook.Enabled && c.Integration.Webhook.URL == "" {
		return fmt.Errorf("webhook integration enabled without url")
	}

	return nil
}

// DefaultParameters returns the power-save parameters new adapters
// start with, after applying the configured overrides.
func (c *Config) DefaultParameters() ps.Parameters {
	params := ps.DefaultParameters()

	switch c.PowerSave.SleepType {
	case "lp":
		params.SleepType = ps.SleepTypeLP
	case "ulp":
		params.SleepType = ps.SleepTypeULP
	}

	if c.PowerSave.ListenInterval != 0 {
		params.ListenInterval = c.PowerSave.ListenInterval
	}
	if c.PowerSave.DeepSleepWakeupPeriod != 0 {
		params.DeepSleepWakeupPeriod = c.PowerSave.DeepSleepWakeupPeriod
	}
	if c.PowerSave.MonitorInterval != 0 {
		params.MonitorInterval = c.PowerSave.MonitorInterval
	}

	return params
}
