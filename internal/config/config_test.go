package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"RECORDS_DIR", "TAXONOMY_DIR", "ITEM_FORMULAS", "OUTPUT_DIR", "CASES_FILE",
		"HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_SINK_TOPIC",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/records", cfg.RecordsDir)
	assert.Equal(t, "data/taxonomy", cfg.TaxonomyDir)
	assert.Equal(t, "configs/items.yaml", cfg.ItemFormulas)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "province-stringency-scores", cfg.KafkaSinkTopic)
}

func TestLoad_Custom(t *testing.T) {
	t.Setenv("RECORDS_DIR", "/data/npi")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("KAFKA_SINK_TOPIC", "scores")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/npi", cfg.RecordsDir)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "scores", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	for _, raw := range []string{"soon", "-5s", "0s"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("SHUTDOWN_TIMEOUT", raw)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
		})
	}
}

func TestLoad_KafkaEnabledNeedsBrokersAndTopic(t *testing.T) {
	t.Run("empty brokers", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", " , ")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})
	t.Run("anything but true stays disabled", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "yes")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.KafkaEnabled)
	})
}
