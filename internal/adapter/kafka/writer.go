package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/climate-grid-service/internal/config"
	"github.com/couchcryptid/climate-grid-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces classified samples to a Kafka topic.
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

// LoadBatch serializes the samples and publishes them in a single
// WriteMessages call. Messages are keyed by sample ID so replays of the same
// sample land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, samples []domain.ClassifiedSample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(samples))
	for i := range samples {
		msg, err := serializeToMessage(samples[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("published classified samples", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a ClassifiedSample into a Kafka message with
// headers in a stable, sorted order.
func serializeToMessage(cs domain.ClassifiedSample) (kafkago.Message, error) {
	out, err := domain.SerializeClassifiedSample(cs)
	if err != nil {
		return kafkago.Message{}, err
	}

	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
