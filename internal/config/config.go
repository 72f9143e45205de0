package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend drivers
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

// Source kinds for resources that can be served from the placeholder catalogue
const (
	SourceStatic  = "static"
	SourceBackend = "backend"
)

// ErrCredentialsMissing is returned when the backend endpoint or secret is absent
var ErrCredentialsMissing = errors.New("credentials not configured")

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Sources SourcesConfig `mapstructure:"sources"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	GinMode      string        `mapstructure:"gin_mode"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// BackendConfig describes the read-only relational backend.
// URL and ServiceRoleKey address the managed REST endpoint; DSN is used by
// the direct postgres driver.
type BackendConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	ServiceRoleKey  string        `mapstructure:"service_role_key"`
	RESTPath        string        `mapstructure:"rest_path"`
	DSN             string        `mapstructure:"dsn"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SourcesConfig selects where the stubbed resources read from
type SourcesConfig struct {
	Bridges string `mapstructure:"bridges"`
	Alerts  string `mapstructure:"alerts"`
}

type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	Output       string `mapstructure:"output"`
	FileRotation bool   `mapstructure:"file_rotation"`
	MaxSize      int    `mapstructure:"max_size"`
	MaxBackups   int    `mapstructure:"max_backups"`
	MaxAge       int    `mapstructure:"max_age"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load loads configuration from an optional YAML file, the environment and
// a .env file in the working directory. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// FromEnv loads configuration purely from the process environment.
// Serverless entry points call it once at cold start.
func FromEnv() (*Config, error) {
	return Load("")
}

// Validate validates the configuration. Missing backend credentials are not
// a validation failure: they surface per request so static resources keep
// answering.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigurationError(ErrInvalidValue, "server.port", c.Server.Port, "port out of range")
	}

	switch c.Backend.Driver {
	case DriverPostgREST, DriverPostgres, DriverMemory:
	default:
		return NewConfigurationError(ErrInvalidValue, "backend.driver", c.Backend.Driver, "unknown driver")
	}

	for field, kind := range map[string]string{"sources.bridges": c.Sources.Bridges, "sources.alerts": c.Sources.Alerts} {
		if kind != SourceStatic && kind != SourceBackend {
			return NewConfigurationError(ErrInvalidValue, field, kind, "must be static or backend")
		}
	}

	if c.Backend.Timeout <= 0 {
		return NewConfigurationError(ErrInvalidValue, "backend.timeout", c.Backend.Timeout, "timeout must be positive")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigurationError(ErrInvalidValue, "tracing.endpoint", "", "endpoint is required when tracing is enabled")
	}

	return nil
}

// Label names the backend in user-facing messages
func (b BackendConfig) Label() string {
	switch b.Driver {
	case DriverPostgres:
		return "Database"
	case DriverMemory:
		return "Memory"
	default:
		return "Supabase"
	}
}

// CheckCredentials reports whether the backend can be queried. It never
// touches the network.
func (b BackendConfig) CheckCredentials() error {
	switch b.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
		if b.DSN == "" {
			return fmt.Errorf("%s %w", b.Label(), ErrCredentialsMissing)
		}
	default:
		if b.URL == "" || b.ServiceRoleKey == "" {
			return fmt.Errorf("%s %w", b.Label(), ErrCredentialsMissing)
		}
	}
	return nil
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("stalwart")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"backend.url":              {"STALWART_BACKEND_URL", "SUPABASE_URL"},
		"backend.service_role_key": {"STALWART_BACKEND_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
		"backend.dsn":              {"STALWART_BACKEND_DSN", "DATABASE_URL"},
		"server.port":              {"STALWART_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8888)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")

	// Backend defaults
	v.SetDefault("backend.driver", DriverPostgREST)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.service_role_key", "")
	v.SetDefault("backend.rest_path", "/rest/v1")
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.max_open_conns", 20)
	v.SetDefault("backend.max_idle_conns", 5)
	v.SetDefault("backend.conn_max_lifetime", "5m")

	// Source defaults
	v.SetDefault("sources.bridges", SourceStatic)
	v.SetDefault("sources.alerts", SourceStatic)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_rotation", false)
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "stalwart")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "stalwart-gateway")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_rate", 0.1)
}
