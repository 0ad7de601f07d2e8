package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "supportflow.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SUPPORTFLOW_PORT")
	setString(&cfg.Server.CORSOrigin, "SUPPORTFLOW_CORS_ORIGIN")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SUPPORTFLOW_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SUPPORTFLOW_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SUPPORTFLOW_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SUPPORTFLOW_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SUPPORTFLOW_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Gateway.URL, "GATEWAY_URL")
	setString(&cfg.Gateway.APIKey, "GATEWAY_API_KEY")
	setDuration(&cfg.Gateway.Timeout, "SUPPORTFLOW_GATEWAY_TIMEOUT")

	setString(&cfg.Logging.Level, "SUPPORTFLOW_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SUPPORTFLOW_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SUPPORTFLOW_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "SUPPORTFLOW_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SUPPORTFLOW_BREAKER_TIMEOUT")

	setInt64(&cfg.Cache.MaxSizeMB, "SUPPORTFLOW_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.HistoryTTL, "SUPPORTFLOW_CACHE_HISTORY_TTL")

	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.Environment, "SUPPORTFLOW_ENVIRONMENT")
	setBool(&cfg.Telemetry.Insecure, "SUPPORTFLOW_OTLP_INSECURE")

	setInt(&cfg.Orchestration.RoundCap, "SUPPORTFLOW_ROUND_CAP")
	setFloat64(&cfg.Orchestration.AmbiguityThreshold, "SUPPORTFLOW_AMBIGUITY_THRESHOLD")
	setInt(&cfg.Orchestration.SessionHistoryLimit, "SUPPORTFLOW_SESSION_HISTORY_LIMIT")

	setFloat64(&cfg.Policies.ConfidenceThreshold, "SUPPORTFLOW_POLICY_CONFIDENCE_THRESHOLD")
	setInt(&cfg.Policies.ErrorCountThreshold, "SUPPORTFLOW_POLICY_ERROR_THRESHOLD")
	setInt(&cfg.Policies.MaxRetries, "SUPPORTFLOW_POLICY_MAX_RETRIES")
	setDuration(&cfg.Policies.RetryDelay, "SUPPORTFLOW_POLICY_RETRY_DELAY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Gateway.URL == "" {
		return errors.New("gateway.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Orchestration.RoundCap < 1 {
		return errors.New("orchestration.round_cap must be >= 1")
	}
	if cfg.Orchestration.AmbiguityThreshold <= 0 || cfg.Orchestration.AmbiguityThreshold > 1 {
		return errors.New("orchestration.ambiguity_threshold must be in (0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
