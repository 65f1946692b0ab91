package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "KAFKA_BROKERS", "STREAM_ENABLED", "ENVIRONMENT", "SCORING_WORKERS", "STREAM_PARTITIONS"} {
		t.Setenv(key, "")
	}
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8096", cfg.GRPCAddress())
	assert.Equal(t, ":9096", cfg.HTTPAddress())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "transactions.engineered", cfg.KafkaTransactionsTopic)
	assert.Equal(t, "fraud.scores", cfg.KafkaScoresTopic)
	assert.Equal(t, 8, cfg.ScoringWorkers)
	assert.Equal(t, 16, cfg.StreamPartitions)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("STREAM_ENABLED", "true")
	t.Setenv("SCORING_WORKERS", "3")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.StreamEnabled)
	assert.Equal(t, 3, cfg.ScoringWorkers)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric workers", map[string]string{"SCORING_WORKERS": "many"}},
		{"zero partitions", map[string]string{"STREAM_PARTITIONS": "0"}},
		{"bad bool", map[string]string{"STREAM_ENABLED": "perhaps"}},
		{"stream without brokers", map[string]string{"STREAM_ENABLED": "true", "KAFKA_BROKERS": ""}},
		{"half tls pair", map[string]string{"GRPC_TLS_CERT_FILE": "cert.pem", "GRPC_TLS_KEY_FILE": ""}},
		{"production without auth", map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "", "JWT_PUBLIC_KEY_FILE": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
