package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Result message header keys.
const (
	HeaderProfile      = "profile"
	HeaderAnalyzedAt   = "analyzed_at"
	HeaderHotspotCount = "hotspot_count"
)

// Writer publishes analysis results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes all results in a single WriteMessages call. Results
// are keyed by request id so retries of one request land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d results: %w", len(msgs), err)
	}
	w.logger.Debug("published results", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(result domain.AnalysisResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis result %s: %w", result.RequestID, err)
	}
	return kafkago.Message{
		Key:   []byte(result.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderProfile, Value: []byte(result.Profile)},
			{Key: HeaderAnalyzedAt, Value: []byte(result.AnalyzedAt.Format(time.RFC3339))},
			{Key: HeaderHotspotCount, Value: []byte(strconv.Itoa(len(result.Hotspots)))},
		},
	}, nil
}
