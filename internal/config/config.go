// Package config loads service settings from an optional .env file, an optional
// YAML file named by CONFIG_FILE, and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultWebhookURL is the Zapier catch hook the ingest flow posts to.
const DefaultWebhookURL = "https://hooks.zapier.com/hooks/catch/25456946/uzp4aen/"

// Store backends for parsed results.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Forwarding payload modes.
const (
	ForwardJSON      = "json"
	ForwardMultipart = "multipart"
)

// Config holds every runtime setting of the API and worker.
type Config struct {
	RunLocal  bool   `yaml:"run_local"`
	Port      string `yaml:"port" validate:"required,numeric"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	WebhookURL         string        `yaml:"webhook_url" validate:"required,url"`
	WebhookTimeout     time.Duration `yaml:"webhook_timeout" validate:"gt=0"`
	ForwardMode        string        `yaml:"forward_mode" validate:"oneof=json multipart"`
	ForwardConcurrency int           `yaml:"forward_concurrency" validate:"min=1,max=32"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes" validate:"gt=0"`

	ResultsStore    string        `yaml:"results_store" validate:"oneof=memory dynamodb"`
	ResultsTable    string        `yaml:"results_table" validate:"required_if=ResultsStore dynamodb"`
	ResultsTTL      time.Duration `yaml:"results_ttl" validate:"gt=0"`
	ResultsQueueURL string        `yaml:"results_queue_url" validate:"omitempty,url"`

	IdempotencyTable string        `yaml:"idempotency_table"`
	IdempotencyTTL   time.Duration `yaml:"idempotency_ttl" validate:"gt=0"`

	DatabaseURL      string `yaml:"database_url"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "console",
		WebhookURL:         DefaultWebhookURL,
		WebhookTimeout:     30 * time.Second,
		ForwardMode:        ForwardJSON,
		ForwardConcurrency: 4,
		MaxUploadBytes:     32 << 20,
		ResultsStore:       StoreMemory,
		ResultsTTL:         time.Hour,
		IdempotencyTTL:     48 * time.Hour,
		MetricsNamespace:   "RentalDispatch",
	}
}

// Load resolves the configuration. A missing .env or CONFIG_FILE is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := validatorv10.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WorkerConfigured reports why the worker cannot run with c, or nil when it can. The
// worker reads the results the API wrote, so both must share a DynamoDB table, and it
// needs a claim table to skip redelivered notices.
func (c Config) WorkerConfigured() error {
	if c.ResultsStore != StoreDynamoDB {
		return fmt.Errorf("worker needs RESULTS_STORE=%s, got %q", StoreDynamoDB, c.ResultsStore)
	}
	if c.ResultsTable == "" {
		return errors.New("worker needs RESULTS_TABLE")
	}
	if c.IdempotencyTable == "" {
		return errors.New("worker needs IDEMPOTENCY_TABLE")
	}
	return nil
}

// BackendConfigured reports whether the hosted Postgres backend can be reached.
func (c Config) BackendConfigured() bool {
	return c.DatabaseURL != ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("WEBHOOK_URL", &cfg.WebhookURL)
	str("FORWARD_MODE", &cfg.ForwardMode)
	str("RESULTS_STORE", &cfg.ResultsStore)
	str("RESULTS_TABLE", &cfg.ResultsTable)
	str("RESULTS_QUEUE_URL", &cfg.ResultsQueueURL)
	str("IDEMPOTENCY_TABLE", &cfg.IdempotencyTable)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("METRICS_NAMESPACE", &cfg.MetricsNamespace)

	if v := os.Getenv("RUN_LOCAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_LOCAL: %w", err)
		}
		cfg.RunLocal = b
	}
	for key, dst := range map[string]*time.Duration{
		"WEBHOOK_TIMEOUT": &cfg.WebhookTimeout,
		"RESULTS_TTL":     &cfg.ResultsTTL,
		"IDEMPOTENCY_TTL": &cfg.IdempotencyTTL,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	if v := os.Getenv("FORWARD_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FORWARD_CONCURRENCY: %w", err)
		}
		cfg.ForwardConcurrency = n
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	return nil
}
