package config

import (
	"errors"
	"os"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	RecordsDir   string
	TaxonomyDir  string
	ItemFormulas string
	OutputDir    string
	CasesFile    string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		RecordsDir:   envOrDefault("RECORDS_DIR", "data/records"),
		TaxonomyDir:  envOrDefault("TAXONOMY_DIR", "data/taxonomy"),
		ItemFormulas: envOrDefault("ITEM_FORMULAS", "configs/items.yaml"),
		OutputDir:    envOrDefault("OUTPUT_DIR", "output"),
		CasesFile:    os.Getenv("CASES_FILE"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "province-stringency-scores"),
	}

	if cfg.RecordsDir == "" {
		return nil, errors.New("RECORDS_DIR is required")
	}
	if cfg.TaxonomyDir == "" {
		return nil, errors.New("TAXONOMY_DIR is required")
	}
	if cfg.ItemFormulas == "" {
		return nil, errors.New("ITEM_FORMULAS is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}
