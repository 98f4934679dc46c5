// Package config loads service settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override: DATAFLEX_SERVER_PORT
// overrides server.port.
const EnvPrefix = "DATAFLEX"

// Config is the root of the service configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// Subscription window policies.
const (
	PolicyFixed = "fixed"
	PolicyPlan  = "plan"
)

type SubscriptionConfig struct {
	Policy    string `mapstructure:"policy"`
	FixedDays int    `mapstructure:"fixed_days"`
}

type RegistrationConfig struct {
	CodeAttempts uint `mapstructure:"code_attempts"`
}

type QueueConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxWorkers int  `mapstructure:"max_workers"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Namespace      string `mapstructure:"namespace"`
	Environment    string `mapstructure:"environment"`
	Exporter       string `mapstructure:"exporter"`
}

// devSecret signs sessions when no secret is configured. Validate refuses it
// outside development.
const devSecret = "dataflex-development-secret"

// Load merges defaults, the config file and the environment. path names an
// explicit file; when empty, config.yaml is looked up in . and ./configs and
// is optional.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.path", "dataflex.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("subscription.policy", PolicyFixed)
	v.SetDefault("subscription.fixed_days", 90)
	v.SetDefault("registration.code_attempts", 5)
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "dataflex")
	v.SetDefault("telemetry.service_version", "0.1.0")
	v.SetDefault("telemetry.namespace", "dataflex")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.exporter", "stdout")
}

// bindLegacyEnv keeps the unprefixed variables earlier deployments used. The
// prefixed name wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"server.port":               "PORT",
		"database.path":             "DATABASE_PATH",
		"telemetry.service_name":    "OTEL_SERVICE_NAME",
		"telemetry.service_version": "OTEL_SERVICE_VERSION",
		"telemetry.environment":     "OTEL_ENVIRONMENT",
		"telemetry.exporter":        "OTEL_EXPORTER",
	}
	for key, env := range legacy {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	for name, d := range map[string]time.Duration{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.request_timeout":     c.Server.RequestTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
		"auth.session_ttl":           c.Auth.SessionTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch c.Subscription.Policy {
	case PolicyFixed, PolicyPlan:
	default:
		errs = append(errs, fmt.Errorf("subscription.policy %q must be %q or %q", c.Subscription.Policy, PolicyFixed, PolicyPlan))
	}
	if c.Subscription.FixedDays <= 0 {
		errs = append(errs, fmt.Errorf("subscription.fixed_days must be positive, got %d", c.Subscription.FixedDays))
	}
	if c.Registration.CodeAttempts == 0 {
		errs = append(errs, errors.New("registration.code_attempts must be at least 1"))
	}
	switch c.Telemetry.Exporter {
	case "stdout", "otlp", "none":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter %q must be stdout, otlp or none", c.Telemetry.Exporter))
	}
	switch strings.ToLower(c.Logger.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format %q must be text or json", c.Logger.Format))
	}
	if c.Auth.JWTSecret == devSecret && c.Telemetry.Environment == "production" {
		errs = append(errs, errors.New("auth.jwt_secret must be set in production"))
	}

	return errors.Join(errs...)
}
