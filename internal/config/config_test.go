package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.Monitor.Interval)
	assert.Equal(t, 60*time.Second, cfg.Monitor.RequestTimeout)
	assert.Equal(t, 1, cfg.Monitor.Concurrency)
	assert.True(t, cfg.Monitor.RunOnStart)
	assert.Equal(t, DefaultQuestion, cfg.Monitor.DefaultQuestion)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	names := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"chatgpt", "claude", "mistral", "gemini", "grok", "deepseek"}, names)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
monitor:
  interval: 30m
  request_timeout: 10s
  concurrency: 3
database:
  driver: postgres
  dbname: drift
providers:
  - name: gpt-4o
    family: openai
    model: gpt-4o
    temperature: 0.2
  - name: sonnet
    family: anthropic
    model: claude-3-5-sonnet-latest
    api_key: inline-key
`)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DRIFT_MONITOR_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, 10*time.Second, cfg.Monitor.RequestTimeout)
	assert.Equal(t, 2, cfg.Monitor.Concurrency)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "drift", cfg.Database.DBName)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "gpt-4o", cfg.Providers[0].Name)
	assert.InDelta(t, 0.2, cfg.Providers[0].Temperature, 1e-9)

	assert.Equal(t, "sk-env", cfg.APIKeyFor(cfg.Providers[0]))
	assert.Equal(t, "inline-key", cfg.APIKeyFor(cfg.Providers[1]))
}

func TestLoad_ProviderTemperatureDefault(t *testing.T) {
	path := writeConfig(t, `
providers:
  - name: x
    family: openai
    model: gpt-4o
  - name: greedy
    family: openai
    model: gpt-4o
    temperature: 0
  - name: warm
    family: mistral
    model: mistral-large-latest
    temperature: 1.1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 3)

	assert.InDelta(t, DefaultTemperature, cfg.Providers[0].Temperature, 1e-9)
	assert.InDelta(t, 0.0, cfg.Providers[1].Temperature, 1e-9)
	assert.InDelta(t, 1.1, cfg.Providers[2].Temperature, 1e-9)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite"},
			Monitor: MonitorConfig{
				Interval:       time.Hour,
				RequestTimeout: time.Second,
				Concurrency:    1,
			},
			Providers: DefaultProviders(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "unknown family",
			mutate:  func(c *Config) { c.Providers[0].Family = "bard" },
			wantErr: "unknown provider family",
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Config) { c.Providers[1].Name = c.Providers[0].Name },
			wantErr: "duplicate name",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Providers[2].Model = "" },
			wantErr: "model is required",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Monitor.Interval = 0 },
			wantErr: "monitor.interval",
		},
		{
			name:    "bad driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "unsupported database driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAPIKeyFor_MissingCredentialIsEmpty(t *testing.T) {
	c := &Config{Credentials: CredentialsConfig{OpenAI: "sk"}}
	assert.Equal(t, "", c.APIKeyFor(ProviderConfig{Name: "gemini", Family: "google"}))
	assert.Equal(t, "sk", c.APIKeyFor(ProviderConfig{Name: "chatgpt", Family: "OpenAI"}))
}
