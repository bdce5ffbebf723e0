package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/gear-smarts-service/internal/config"
	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Writer produces training events to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured events topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes training events in a single
// WriteMessages call. Events are keyed by namespace so each namespace keeps
// its order within a partition.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.TrainingEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TrainingEvent into a Kafka message.
func serializeToMessage(event domain.TrainingEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize training event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Namespace),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "classification", Value: []byte(event.Classification)},
			{Key: "dataset_size", Value: []byte(strconv.Itoa(event.DatasetSize))},
			{Key: "status", Value: []byte(event.Status)},
			{Key: "trained_at", Value: []byte(event.TrainedAt.Format(time.RFC3339))},
		},
	}, nil
}
