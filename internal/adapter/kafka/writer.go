// Package kafka publishes final province field scores to a Kafka topic for
// downstream dashboards and stores.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/covidnpi/stringency-etl/internal/config"
	"github.com/covidnpi/stringency-etl/internal/domain"
)

// scorePrecision mirrors the file sink: scores are rounded to 3 decimals
// before publishing so both outputs stay byte-comparable.
const scorePrecision = 1000

// FieldScoresMessage is the wire payload: one message per province, keyed by
// province, carrying every field's daily series.
type FieldScoresMessage struct {
	Province       string                        `json:"province"`
	FormulaVersion string                        `json:"formula_version"`
	GeneratedAt    time.Time                     `json:"generated_at"`
	Fields         map[string]map[string]float64 `json:"fields"`
}

// Writer produces field score messages to the sink topic. It implements
// pipeline.Publisher.
type Writer struct {
	writer         *kafkago.Writer
	formulaVersion string
	logger         *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, formulaVersion string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, formulaVersion: formulaVersion, logger: logger}
}

// PublishFields serializes one province's field table and writes it to the
// sink topic.
func (w *Writer) PublishFields(ctx context.Context, province string, fields *domain.Table) error {
	msg, err := serializeFields(province, w.formulaVersion, fields)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish field scores for %s: %w", province, err)
	}
	w.logger.Debug("published field scores", "province", province)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeFields marshals a field table into a Kafka message keyed by
// province.
func serializeFields(province, version string, fields *domain.Table) (kafkago.Message, error) {
	payload := FieldScoresMessage{
		Province:       province,
		FormulaVersion: version,
		GeneratedAt:    domain.Today(),
		Fields:         make(map[string]map[string]float64, len(fields.Columns)),
	}
	for _, col := range fields.Columns {
		series := make(map[string]float64, len(fields.Data[col]))
		for date, v := range fields.Data[col] {
			series[date] = math.Round(v*scorePrecision) / scorePrecision
		}
		payload.Fields[col] = series
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize field scores for %s: %w", province, err)
	}
	return kafkago.Message{
		Key:   []byte(province),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "formula_version", Value: []byte(version)},
			{Key: "generated_at", Value: []byte(payload.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
