package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/config"
	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReportEvent is the payload written for each appended report.
type ReportEvent struct {
	ID          string        `json:"id"`
	Report      domain.Report `json:"report"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// Writer publishes appended reports to a Kafka topic.
// It implements reports.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured reports topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport serializes report into a ReportEvent and writes it
// synchronously.
func (w *Writer) PublishReport(ctx context.Context, report domain.Report) error {
	msg, err := serializeToMessage(newReportEvent(report))
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report event: %w", err)
	}
	w.logger.Debug("report event published", "key", string(msg.Key), "type", report.Type)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func newReportEvent(report domain.Report) ReportEvent {
	return ReportEvent{
		ID:          uuid.NewString(),
		Report:      report,
		SubmittedAt: domain.Now().UTC(),
	}
}

// serializeToMessage marshals a ReportEvent into a Kafka message.
func serializeToMessage(event ReportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_type", Value: []byte(event.Report.Type)},
			{Key: "submitted_at", Value: []byte(event.SubmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
