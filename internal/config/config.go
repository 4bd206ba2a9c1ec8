package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Bot modes.
const (
	ModeAuto    = "auto"
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds all application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Limits   LimitsConfig   `yaml:"limits"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig holds chat front end configuration.
type TelegramConfig struct {
	Token              string `yaml:"token" envconfig:"BOT_TOKEN"`
	Mode               string `yaml:"mode" envconfig:"BOT_MODE"`
	WebhookURL         string `yaml:"webhook_url" envconfig:"WEBHOOK_URL"`
	PollTimeout        int    `yaml:"poll_timeout" envconfig:"BOT_POLL_TIMEOUT"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" envconfig:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int    `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"PORT"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// StorageConfig holds scratch directory configuration.
type StorageConfig struct {
	TempPath  string        `yaml:"temp_path" envconfig:"STORAGE_TEMP_PATH"`
	Retention time.Duration `yaml:"retention" envconfig:"STORAGE_RETENTION"`
}

// FetchConfig holds yt-dlp invocation settings.
type FetchConfig struct {
	BinaryPath       string        `yaml:"binary_path" envconfig:"YTDLP_PATH"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout" envconfig:"FETCH_PROBE_TIMEOUT"`
	Format           string        `yaml:"format" envconfig:"FETCH_FORMAT"`
	SocketTimeout    time.Duration `yaml:"socket_timeout" envconfig:"FETCH_SOCKET_TIMEOUT"`
	MinArtifactBytes int64         `yaml:"min_artifact_bytes" envconfig:"FETCH_MIN_ARTIFACT_BYTES"`
	MaxErrorOutput   int           `yaml:"max_error_output" envconfig:"FETCH_MAX_ERROR_OUTPUT"`
}

// LimitsConfig holds the size policy applied before delivery.
type LimitsConfig struct {
	MinFileMB float64 `yaml:"min_file_mb" envconfig:"MIN_FILE_MB"`
	MaxFileMB float64 `yaml:"max_file_mb" envconfig:"MAX_FILE_MB"`
}

// WorkerConfig holds request worker pool configuration.
type WorkerConfig struct {
	Count           int           `yaml:"count" envconfig:"WORKER_COUNT"`
	QueueSize       int           `yaml:"queue_size" envconfig:"WORKER_QUEUE_SIZE"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"WORKER_SHUTDOWN_TIMEOUT"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Mode:               ModeAuto,
			PollTimeout:        60,
			RateLimitPerMinute: 6,
			RateLimitBurst:     3,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			TempPath:  "downloads",
			Retention: 30 * time.Minute,
		},
		Fetch: FetchConfig{
			BinaryPath:       "yt-dlp",
			Timeout:          120 * time.Second,
			ProbeTimeout:     10 * time.Second,
			Format:           "best[filesize<50M]/best[filesize_approx<50M]/worst",
			SocketTimeout:    30 * time.Second,
			MinArtifactBytes: 100 * 1024,
			MaxErrorOutput:   64 * 1024,
		},
		Limits: LimitsConfig{
			MinFileMB: 0.1,
			MaxFileMB: 50,
		},
		Worker: WorkerConfig{
			Count:           4,
			QueueSize:       64,
			ShutdownTimeout: 25 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads configuration. Precedence is built-in defaults, then the YAML
// file (if any), then environment variables.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.Telegram.Mode = strings.ToLower(strings.TrimSpace(cfg.Telegram.Mode))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv exports variables from a .env file into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	switch c.Telegram.Mode {
	case ModeAuto, ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required in webhook mode")
		}
	default:
		return fmt.Errorf("BOT_MODE must be one of auto, polling, webhook (got %q)", c.Telegram.Mode)
	}
	if c.Telegram.WebhookURL != "" && !strings.HasPrefix(c.Telegram.WebhookURL, "https://") {
		return fmt.Errorf("WEBHOOK_URL must be an https URL")
	}
	if c.Telegram.RateLimitPerMinute < 0 || c.Telegram.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Storage.TempPath == "" {
		return fmt.Errorf("STORAGE_TEMP_PATH is required")
	}
	if c.Storage.Retention <= 0 {
		return fmt.Errorf("STORAGE_RETENTION must be positive")
	}
	if c.Fetch.BinaryPath == "" {
		return fmt.Errorf("YTDLP_PATH is required")
	}
	if c.Fetch.Timeout <= 0 || c.Fetch.ProbeTimeout <= 0 {
		return fmt.Errorf("fetch timeouts must be positive")
	}
	if c.Fetch.MaxErrorOutput <= 0 {
		return fmt.Errorf("FETCH_MAX_ERROR_OUTPUT must be positive")
	}
	if c.Limits.MinFileMB < 0 || c.Limits.MaxFileMB <= 0 || c.Limits.MinFileMB > c.Limits.MaxFileMB {
		return fmt.Errorf("invalid size limits: min %.2fMB, max %.2fMB", c.Limits.MinFileMB, c.Limits.MaxFileMB)
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// UseWebhook reports whether updates are pushed to the HTTP server rather
// than polled.
func (c *TelegramConfig) UseWebhook() bool {
	switch c.Mode {
	case ModeWebhook:
		return true
	case ModePolling:
		return false
	default:
		return c.WebhookURL != ""
	}
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
