package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/config"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes validated reports to a Kafka topic.
// It implements pipeline.Publisher.
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

// ReportMessage is the JSON value of a published report.
type ReportMessage struct {
	Source   string        `json:"source"`
	LoadedAt time.Time     `json:"loaded_at"`
	Report   domain.Report `json:"report"`
}

// PublishSnapshot serializes every report of a snapshot and publishes them in
// a single WriteMessages call.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Reports))
	for i := range snap.Reports {
		msg, err := serializeToMessage(snap.Source, snap.Reports[i], snap.LoadedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot published", "source", snap.Source, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message keyed by source
// and row id so that reloads of the same row land on the same partition.
func serializeToMessage(source string, r domain.Report, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(ReportMessage{Source: source, LoadedAt: loadedAt, Report: r})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(source + "#" + strconv.Itoa(r.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_type", Value: []byte(r.Type)},
			{Key: "neighborhood", Value: []byte(r.Neighborhood)},
			{Key: "loaded_at", Value: []byte(loadedAt.Format(time.RFC3339))},
		},
	}, nil
}
