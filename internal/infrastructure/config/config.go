package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the scoring service.
type Config struct {
	KafkaBrokers           []string
	GRPCPort               string
	HTTPPort               string
	DatabaseURL            string
	KafkaTransactionsTopic string
	KafkaScoresTopic       string
	KafkaConsumerGroup     string
	KafkaSASLMechanism     string
	KafkaSASLUsername      string
	KafkaSASLPassword      string
	Environment            string
	LogLevel               string
	LogFormat              string
	OTLPEndpoint           string
	JWTSecret              string
	JWTPublicKeyFile       string
	JWTIssuer              string
	TLSCertFile            string
	TLSKeyFile             string
	ScoringConfigPath      string
	ScoringWorkers         int
	StreamPartitions       int
	StreamEnabled          bool
	KafkaTLS               bool
}

// Load reads configuration from environment variables with sensible defaults.
// An empty DATABASE_URL selects the in-memory adapters and an empty
// KAFKA_BROKERS disables event publishing.
func Load() (*Config, error) {
	workers, err := getEnvInt("SCORING_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	partitions, err := getEnvInt("STREAM_PARTITIONS", 16)
	if err != nil {
		return nil, err
	}
	streamEnabled, err := getEnvBool("STREAM_ENABLED", false)
	if err != nil {
		return nil, err
	}
	kafkaTLS, err := getEnvBool("KAFKA_TLS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GRPCPort:               getEnv("GRPC_PORT", "8096"),
		HTTPPort:               getEnv("HTTP_PORT", "9096"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		KafkaBrokers:           splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTransactionsTopic: getEnv("KAFKA_TRANSACTIONS_TOPIC", "transactions.engineered"),
		KafkaScoresTopic:       getEnv("KAFKA_SCORES_TOPIC", "fraud.scores"),
		KafkaConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "fraudscore"),
		KafkaSASLMechanism:     getEnv("KAFKA_SASL_MECHANISM", ""),
		KafkaSASLUsername:      getEnv("KAFKA_SASL_USERNAME", ""),
		KafkaSASLPassword:      getEnv("KAFKA_SASL_PASSWORD", ""),
		KafkaTLS:               kafkaTLS,
		StreamEnabled:          streamEnabled,
		Environment:            getEnv("ENVIRONMENT", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:           getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTPublicKeyFile:       getEnv("JWT_PUBLIC_KEY_FILE", ""),
		JWTIssuer:              getEnv("JWT_ISSUER", ""),
		TLSCertFile:            getEnv("GRPC_TLS_CERT_FILE", ""),
		TLSKeyFile:             getEnv("GRPC_TLS_KEY_FILE", ""),
		ScoringConfigPath:      getEnv("SCORING_CONFIG_PATH", ""),
		ScoringWorkers:         workers,
		StreamPartitions:       partitions,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.ScoringWorkers <= 0 {
		return fmt.Errorf("SCORING_WORKERS must be positive, got %d", c.ScoringWorkers)
	}
	if c.StreamPartitions <= 0 {
		return fmt.Errorf("STREAM_PARTITIONS must be positive, got %d", c.StreamPartitions)
	}
	if c.StreamEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("STREAM_ENABLED requires KAFKA_BROKERS")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together")
	}
	if c.IsProduction() && c.JWTSecret == "" && c.JWTPublicKeyFile == "" {
		return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// AuthEnabled reports whether gRPC requests must carry a JWT.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWTPublicKeyFile != ""
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
