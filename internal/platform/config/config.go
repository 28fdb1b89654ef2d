// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultClientTimeout is the per-request deadline enforced by the transport.
	DefaultClientTimeout = 30 * time.Second

	// DefaultPersistKey is the persisted-state key cleared on session invalidation.
	DefaultPersistKey = "persist:root"

	// DefaultRootPath is the unauthenticated entry point.
	DefaultRootPath = "/"

	// DefaultLocale is the locale used when none is configured.
	DefaultLocale = "en"

	// DefaultSandboxPort is the default port of the sandbox upstream.
	DefaultSandboxPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20 // 1048576 bytes

	// DefaultTransportMaxIdleConns is the default max idle connections.
	DefaultTransportMaxIdleConns = 100

	// DefaultTransportMaxIdleConnsPerHost is the default max idle connections per host.
	DefaultTransportMaxIdleConnsPerHost = 10

	// DefaultTransportIdleConnTimeout is the default idle connection timeout.
	DefaultTransportIdleConnTimeout = 90 * time.Second

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"`
	Session   SessionConfig   `koanf:"session"`
	I18n      I18nConfig      `koanf:"i18n"`
	Sandbox   SandboxConfig   `koanf:"sandbox"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains settings for the outgoing API client.
type ClientConfig struct {
	BaseURL     string          `koanf:"base_url"     validate:"required,http_url"`
	ServiceName string          `koanf:"service_name" validate:"required"`
	Timeout     time.Duration   `koanf:"timeout"      validate:"required,min=100ms"`
	Transport   TransportConfig `koanf:"transport"`

	// Token is sent as a bearer credential when set.
	Token string `koanf:"token"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// SessionConfig contains session invalidation settings.
type SessionConfig struct {
	PersistKey  string `koanf:"persist_key"  validate:"required"`
	RootPath    string `koanf:"root_path"    validate:"required,startswith=/"`
	StoragePath string `koanf:"storage_path" validate:"required"`
}

// I18nConfig contains localization settings.
type I18nConfig struct {
	Locale string `koanf:"locale" validate:"required"`

	// Dir optionally points at a directory of <locale>.toml files that
	// override the embedded catalogs.
	Dir string `koanf:"dir"`
}

// SandboxConfig contains settings for the sandbox upstream server.
type SandboxConfig struct {
	Port            int           `koanf:"port"             validate:"omitempty,min=1,max=65535"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"omitempty,min=1"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`

	// Tokens lists accepted bearer tokens as "token=subject" pairs.
	Tokens []string `koanf:"tokens" validate:"dive,required"`

	// ExpiredTokens lists tokens answered with ACCESS_TOKEN_EXPIRED.
	ExpiredTokens []string `koanf:"expired_tokens" validate:"dive,required"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "go-api-client",
		"app.version":     "dev",
		"app.environment": "local",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "go-api-client",
		"telemetry.sampling_rate": 1.0,

		"client.base_url":                          "http://localhost:8080",
		"client.service_name":                      "api",
		"client.timeout":                           "30s",
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",
		"client.token":                             "",

		"session.persist_key":  DefaultPersistKey,
		"session.root_path":    DefaultRootPath,
		"session.storage_path": "./state.db",

		"i18n.locale": DefaultLocale,
		"i18n.dir":    "",

		"sandbox.port":             DefaultSandboxPort,
		"sandbox.host":             "127.0.0.1",
		"sandbox.read_timeout":     "30s",
		"sandbox.write_timeout":    "60s",
		"sandbox.shutdown_timeout": "10s",
		"sandbox.max_request_size": DefaultMaxRequestSize,
		"sandbox.request_timeout":  "30s",
		"sandbox.tokens":           []string{"dev-token=demo"},
		"sandbox.expired_tokens":   []string{"expired-token"},
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix.
	// APP_CLIENT__BASE_URL maps to client.base_url; a double underscore
	// separates sections so single underscores survive inside key names.
	err = k.Load(env.Provider("APP_", ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey converts APP_LOG__FILE__ENABLED to log.file.enabled.
// Variables without a double underscore fall back to the single-underscore
// form, so APP_LOG_LEVEL still maps to log.level.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "APP_"))
	if strings.Contains(key, "__") {
		return strings.ReplaceAll(key, "__", ".")
	}

	return strings.ReplaceAll(key, "_", ".")
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
