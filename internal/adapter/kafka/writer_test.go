package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidnpi/stringency-etl/internal/config"
	"github.com/covidnpi/stringency-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{"broker-1:9092", "broker-2:9092"},
		KafkaSinkTopic: "scores",
	}
}

func TestSerializeFields(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2021, 6, 15, 9, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	fields := domain.NewTable()
	fields.Set("cultura", domain.Series{"2021-01-01": 0.123456, "2021-01-02": 1})

	msg, err := serializeFields("madrid", "2021-06", fields)
	require.NoError(t, err)

	assert.Equal(t, []byte("madrid"), msg.Key)

	var payload FieldScoresMessage
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "madrid", payload.Province)
	assert.Equal(t, "2021-06", payload.FormulaVersion)
	assert.Equal(t, time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC), payload.GeneratedAt,
		"generation timestamp is the run date, not the wall clock instant")
	assert.Equal(t, 0.123, payload.Fields["cultura"]["2021-01-01"], "scores round to 3 decimals")
	assert.Equal(t, 1.0, payload.Fields["cultura"]["2021-01-02"])

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "formula_version", msg.Headers[0].Key)
	assert.Equal(t, "2021-06", string(msg.Headers[0].Value))
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, "2021-06-15T00:00:00Z", string(msg.Headers[1].Value))
}

func TestNewWriterUsesConfiguredTopic(t *testing.T) {
	w := NewWriter(testConfig(), "2021-06", discardLogger())
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "scores", w.writer.Topic)
	assert.Equal(t, "broker-1:9092,broker-2:9092", w.writer.Addr.String())
}
