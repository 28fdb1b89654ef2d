package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully valid configuration for testing.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "test-client",
			Version:     "1.0.0",
			Environment: "local",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			BaseURL:     "https://api.example.com",
			ServiceName: "api",
			Timeout:     30 * time.Second,
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Session: SessionConfig{
			PersistKey:  "persist:root",
			RootPath:    "/",
			StoragePath: "./state.db",
		},
		I18n: I18nConfig{
			Locale: "en",
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		contains []string
	}{
		{
			name:     "missing app name",
			mutate:   func(c *Config) { c.App.Name = "" },
			contains: []string{"app.name", "required"},
		},
		{
			name:     "invalid environment",
			mutate:   func(c *Config) { c.App.Environment = "staging" },
			contains: []string{"app.environment", "must be one of"},
		},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.Log.Level = "verbose" },
			contains: []string{"log.level", "must be one of"},
		},
		{
			name:     "invalid log format",
			mutate:   func(c *Config) { c.Log.Format = "xml" },
			contains: []string{"log.format"},
		},
		{
			name: "log file enabled without path",
			mutate: func(c *Config) {
				c.Log.File.Enabled = true
				c.Log.File.Path = ""
			},
			contains: []string{"log.file.path", "required when"},
		},
		{
			name:     "invalid base url",
			mutate:   func(c *Config) { c.Client.BaseURL = "not a url" },
			contains: []string{"client.base_url", "valid URL"},
		},
		{
			name:     "timeout too small",
			mutate:   func(c *Config) { c.Client.Timeout = 10 * time.Millisecond },
			contains: []string{"client.timeout", "at least"},
		},
		{
			name:     "missing persist key",
			mutate:   func(c *Config) { c.Session.PersistKey = "" },
			contains: []string{"session.persist_key", "required"},
		},
		{
			name:     "relative root path",
			mutate:   func(c *Config) { c.Session.RootPath = "login" },
			contains: []string{"session.root_path", `must start with "/"`},
		},
		{
			name:     "missing locale",
			mutate:   func(c *Config) { c.I18n.Locale = "" },
			contains: []string{"i18n.locale", "required"},
		},
		{
			name:     "sandbox port out of range",
			mutate:   func(c *Config) { c.Sandbox.Port = 70000 },
			contains: []string{"sandbox.port", "at most"},
		},
		{
			name: "telemetry enabled without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.ServiceName = "svc"
			},
			contains: []string{"telemetry.endpoint"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Client.ServiceName = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "client.service_name")
}

func TestConfig_Validate_FieldErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Client.Transport.MaxIdleConns = 0
	cfg.Sandbox.Tokens = []string{"ok=u", ""}

	err := cfg.Validate()
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "client.transport.max_idle_conns is required")
	assert.Contains(t, err.Error(), "sandbox.tokens[1] is required")
}

func TestConfig_Validate_EmptySectionsNameEveryKey(t *testing.T) {
	cfg := validConfig()
	cfg.Session = SessionConfig{}
	cfg.I18n = I18nConfig{}
	cfg.Client.Transport = TransportConfig{}

	err := cfg.Validate()
	require.Error(t, err)

	for _, key := range []string{
		"session.persist_key",
		"session.root_path",
		"session.storage_path",
		"i18n.locale",
		"client.transport.max_idle_conns",
		"client.transport.idle_conn_timeout",
	} {
		assert.Contains(t, err.Error(), key+" is required")
	}

	assert.NotContains(t, err.Error(), "session is required")
	assert.NotContains(t, err.Error(), "i18n is required")
	assert.NotContains(t, err.Error(), "client.transport is required")
}

func TestConfig_Validate_BaseURLScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Client.BaseURL = "ftp://files.example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client.base_url must be a valid URL")
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "client.transport.max_idle_conns", configKey("Config.client.transport.max_idle_conns"))
	assert.Equal(t, "name", configKey("name"))
}
