package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/rfp-cli/internal/extract"
	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Display DisplayConfig `yaml:"display" mapstructure:"display"`
	Upload  UploadConfig  `yaml:"upload" mapstructure:"upload"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig points at the analysis backend.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryConfig configures backoff for backend calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Resilience converts to the retry policy used by the client.
func (c RetryConfig) Resilience() resilience.RetryConfig {
	return resilience.FromConfig(c.MaxAttempts, c.InitialBackoffMs, c.MaxBackoffMs)
}

// SessionConfig configures backend session lifetime.
type SessionConfig struct {
	CleanupAfter time.Duration `yaml:"cleanup_after" mapstructure:"cleanup_after"`
}

// DisplayConfig holds the initial display filter.
type DisplayConfig struct {
	ShowInterpreted     bool    `yaml:"show_interpreted" mapstructure:"show_interpreted"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
}

// Filter returns the configured initial filter.
func (c DisplayConfig) Filter() present.Filter {
	return present.Filter{ShowInterpreted: c.ShowInterpreted, ConfidenceThreshold: c.ConfidenceThreshold}
}

// UploadConfig limits uploads.
type UploadConfig struct {
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size"`
}

// ExtractConfig selects how PDFs are turned into text for --extract-text.
type ExtractConfig = extract.Config

// StoreConfig configures the history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ServerConfig configures the web UI server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout_secs", 300)
	v.SetDefault("api.rate_per_sec", 0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("session.cleanup_after", "30m")
	v.SetDefault("display.show_interpreted", true)
	v.SetDefault("display.confidence_threshold", 0)
	v.SetDefault("upload.max_size", 50<<20)
	v.SetDefault("extract.provider", extract.ProviderLocal)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rfp.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "client":
		errs = append(errs, c.validateClient()...)
	case "serve":
		errs = append(errs, c.validateClient()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateClient() []string {
	var errs []string
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, "api.timeout_secs must be > 0")
	}
	if c.API.RatePerSec < 0 {
		errs = append(errs, "api.rate_per_sec must be >= 0")
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		errs = append(errs, "retry.max_backoff_ms must be >= retry.initial_backoff_ms")
	}
	if c.Session.CleanupAfter <= 0 {
		errs = append(errs, "session.cleanup_after must be > 0")
	}
	if c.Upload.MaxSize <= 0 {
		errs = append(errs, "upload.max_size must be > 0")
	}
	if err := c.Display.Filter().Validate(); err != nil {
		errs = append(errs, "display.confidence_threshold must be within [0,1]")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
