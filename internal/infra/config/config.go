package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                    string
	HTTPAddr               string
	LogLevel               slog.Level
	PMSAPIURL              string
	PMSTimeout             time.Duration
	CacheTTL               time.Duration
	SessionTTL             time.Duration
	IdempotencyTTL         time.Duration
	MongoURI               string
	MongoDB                string
	KafkaBrokers           []string
	KafkaTopicPrefix       string
	KafkaInvalidationTopic string
	KafkaGroupID           string
	OutboxPollInterval     time.Duration
	RetryBackoff           []time.Duration
	S3Endpoint             string
	S3PublicEndpoint       string
	S3AccessKey            string
	S3SecretKey            string
	S3Bucket               string
	S3UseSSL               bool
	CORSOrigins            []string
}

// Load reads an optional .env file, then parses configuration from the
// environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Env:                    getEnv("APP_ENV", "dev"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		PMSAPIURL:              strings.TrimRight(os.Getenv("PMS_API_URL"), "/"),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDB:                getEnv("MONGO_DB", "pousada_console"),
		KafkaTopicPrefix:       getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaInvalidationTopic: getEnv("KAFKA_INVALIDATION_TOPIC", ""),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "pousada-console"),
		S3Endpoint:             getEnv("S3_ENDPOINT", ""),
		S3PublicEndpoint:       getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:            getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:            getEnv("S3_SECRET_KEY", ""),
		S3Bucket:               getEnv("S3_BUCKET", "pousada-statements"),
		CORSOrigins:            splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))

	level, err := parseLevelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"PMS_TIMEOUT", 10 * time.Second, &cfg.PMSTimeout},
		{"CACHE_TTL", 30 * time.Second, &cfg.CacheTTL},
		{"SESSION_TTL", 12 * time.Hour, &cfg.SessionTTL},
		{"IDEMP_TTL", 24 * time.Hour, &cfg.IdempotencyTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
	}
	for _, d := range durations {
		v, err := parseDurationEnv(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	if cfg.PMSAPIURL == "" {
		return Config{}, fmt.Errorf("PMS_API_URL is required")
	}
	if cfg.PMSTimeout <= 0 {
		return Config{}, fmt.Errorf("PMS_TIMEOUT must be positive")
	}
	return cfg, nil
}

// StatementsEnabled reports whether S3 statement export is configured.
func (c Config) StatementsEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func parseLevelEnv(key string, def slog.Level) (slog.Level, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return def, fmt.Errorf("invalid %s level: %w", key, err)
	}
	return level, nil
}
