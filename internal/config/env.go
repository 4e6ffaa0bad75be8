package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// envOrDefault returns the environment value for key, or fallback when unset
// or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// parseShutdownTimeout reads SHUTDOWN_TIMEOUT as a positive duration.
func parseShutdownTimeout() (time.Duration, error) {
	raw := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}
