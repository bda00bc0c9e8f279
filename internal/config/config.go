package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for job snapshots and pending payloads.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Config holds all configuration for the transcribed server and worker.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	Queue    QueueConfig
	Whisper  WhisperConfig
	Cloud    CloudConfig
	Rates    RateConfig
	Stream   StreamConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// StoreConfig selects the job store backend. The memory backend is
// single-process and only valid when jobs are executed inline; the redis
// backend is required once the worker runs as a separate process.
type StoreConfig struct {
	Backend string
	JobTTL  time.Duration
}

type QueueConfig struct {
	Name          string
	Concurrency   int
	MaxRetries    int
	RetryDelay    time.Duration
	SoftTimeLimit time.Duration
	HardTimeLimit time.Duration
}

// WhisperConfig configures the local inference sidecar.
type WhisperConfig struct {
	BaseURL         string
	Model           string
	DefaultLanguage string
	Timeout         time.Duration
}

// CloudConfig configures the remote transcription API. The API key is not
// required at startup; a cloud job without a key fails with a configuration
// error rather than preventing the process from running local jobs.
type CloudConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// RateConfig holds the per-minute cost constants used by cost accounting.
type RateConfig struct {
	CloudPerMinute float64
	LocalPerMinute float64
}

type StreamConfig struct {
	Cadence time.Duration
}

// Load reads configuration from environment variables and returns a
// validated Config. Returns an error with a descriptive message if any
// required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TRANSCRIBED_PORT", 8080),
			Env:  envString("TRANSCRIBED_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Store: StoreConfig{
			Backend: envString("JOB_STORE_BACKEND", StoreBackendRedis),
			JobTTL:  envDuration("JOB_TTL", time.Hour),
		},
		Queue: QueueConfig{
			Name:          envString("QUEUE_NAME", "transcription"),
			Concurrency:   envInt("QUEUE_CONCURRENCY", 1),
			MaxRetries:    envInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:    envDuration("QUEUE_RETRY_DELAY", time.Minute),
			SoftTimeLimit: envDuration("QUEUE_SOFT_TIME_LIMIT", 30*time.Minute),
			HardTimeLimit: envDuration("QUEUE_HARD_TIME_LIMIT", time.Hour),
		},
		Whisper: WhisperConfig{
			BaseURL:         envString("WHISPER_BASE_URL", "http://localhost:9000"),
			Model:           envString("WHISPER_MODEL", "base"),
			DefaultLanguage: envString("WHISPER_LANGUAGE", ""),
			Timeout:         envDuration("WHISPER_TIMEOUT", time.Hour),
		},
		Cloud: CloudConfig{
			BaseURL: envString("CLOUD_TRANSCRIBE_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envString("CLOUD_TRANSCRIBE_MODEL", "whisper-1"),
			Timeout: envDuration("CLOUD_TRANSCRIBE_TIMEOUT", 5*time.Minute),
		},
		Rates: RateConfig{
			CloudPerMinute: envFloat("CLOUD_RATE_PER_MINUTE", 0.006),
			LocalPerMinute: envFloat("LOCAL_RATE_PER_MINUTE", 0.0005),
		},
		Stream: StreamConfig{
			Cadence: envDuration("STREAM_CADENCE", 500*time.Millisecond),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when JOB_STORE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("JOB_STORE_BACKEND must be memory or redis; got %q", c.Store.Backend)
	}

	if !strings.HasPrefix(c.Whisper.BaseURL, "http://") && !strings.HasPrefix(c.Whisper.BaseURL, "https://") {
		return fmt.Errorf("WHISPER_BASE_URL must start with http:// or https://, got %q", c.Whisper.BaseURL)
	}

	if !strings.HasPrefix(c.Cloud.BaseURL, "http://") && !strings.HasPrefix(c.Cloud.BaseURL, "https://") {
		return fmt.Errorf("CLOUD_TRANSCRIBE_BASE_URL must start with http:// or https://, got %q", c.Cloud.BaseURL)
	}

	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("QUEUE_CONCURRENCY must be at least 1; got %d", c.Queue.Concurrency)
	}
	if c.Queue.SoftTimeLimit >= c.Queue.HardTimeLimit {
		return fmt.Errorf("QUEUE_SOFT_TIME_LIMIT must be shorter than QUEUE_HARD_TIME_LIMIT")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
