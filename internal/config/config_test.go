package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-cli/internal/present"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.API.Timeout())
	assert.Zero(t, cfg.API.RatePerSec)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Session.CleanupAfter)
	assert.Equal(t, present.DefaultFilter(), cfg.Display.Filter())
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxSize)
	assert.Equal(t, "local", cfg.Extract.Provider)
	assert.Equal(t, "pdftotext", cfg.Extract.PdfToTextPath)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "rfp.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate("client"))
	require.NoError(t, cfg.Validate("serve"))
	require.NoError(t, cfg.Validate("store"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
api:
  base_url: https://rfp.internal
store:
  driver: postgres
  database_url: postgres://localhost/rfp
session:
  cleanup_after: 5m
display:
  show_interpreted: false
  confidence_threshold: 0.7
extract:
  provider: mistral
  mistral_api_key: mk-123
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://rfp.internal", cfg.API.BaseURL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Session.CleanupAfter)
	assert.Equal(t, present.Filter{ShowInterpreted: false, ConfidenceThreshold: 0.7}, cfg.Display.Filter())
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "mistral", cfg.Extract.Provider)
	assert.Equal(t, "mk-123", cfg.Extract.MistralKey)
	// Defaults still apply for unset values
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("RFP_STORE_DRIVER", "postgres")
	t.Setenv("RFP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RFP_SERVER_PORT", "9090")
	t.Setenv("RFP_API_BASE_URL", "http://backend:8000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://backend:8000", cfg.API.BaseURL)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestRetryConfig_Resilience(t *testing.T) {
	rc := RetryConfig{MaxAttempts: 5, InitialBackoffMs: 100, MaxBackoffMs: 2000}.Resilience()
	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, rc.InitialBackoff)
	assert.Equal(t, 2*time.Second, rc.MaxBackoff)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		API:     APIConfig{BaseURL: "http://localhost:8000", TimeoutSecs: 300},
		Retry:   RetryConfig{MaxAttempts: 3, InitialBackoffMs: 500, MaxBackoffMs: 10000},
		Session: SessionConfig{CleanupAfter: 30 * time.Minute},
		Display: DisplayConfig{ShowInterpreted: true},
		Upload:  UploadConfig{MaxSize: 50 << 20},
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "rfp.db"},
		Server:  ServerConfig{Port: 3000},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{"client ok", "client", func(*Config) {}, ""},
		{"missing base url", "client", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"zero timeout", "client", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"negative rate", "client", func(c *Config) { c.API.RatePerSec = -1 }, "api.rate_per_sec"},
		{"no attempts", "client", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"backoff order", "client", func(c *Config) { c.Retry.MaxBackoffMs = 10 }, "retry.max_backoff_ms"},
		{"cleanup delay", "client", func(c *Config) { c.Session.CleanupAfter = 0 }, "session.cleanup_after"},
		{"upload size", "client", func(c *Config) { c.Upload.MaxSize = 0 }, "upload.max_size"},
		{"threshold range", "client", func(c *Config) { c.Display.ConfidenceThreshold = 1.5 }, "display.confidence_threshold"},
		{"serve port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port must be > 0"},
		{"serve inherits client", "serve", func(c *Config) { c.API.BaseURL = "" }, "api.base_url"},
		{"store driver", "store", func(c *Config) { c.Store.Driver = "mysql" }, `store.driver "mysql"`},
		{"store url", "store", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url is required"},
		{"unknown mode", "unknown", func(*Config) {}, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.API.BaseURL = ""
	cfg.Upload.MaxSize = 0

	err := cfg.Validate("client")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "upload.max_size")
}
