package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func testReport() domain.Report {
	return domain.Report{
		Type:      domain.TypeDarkArea,
		Desc:      "No streetlights near the bus stop",
		Severity:  domain.SeverityHigh,
		Lat:       28.6139,
		Lng:       77.2090,
		Timestamp: "2024-04-26T15:10:00Z",
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := ReportEvent{ID: "rpt-1", Report: testReport(), SubmittedAt: now}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("rpt-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"Dark Area"`)
	assert.Contains(t, string(msg.Value), `"submitted_at":"2024-04-26T15:10:00Z"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "report_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("Dark Area"), msg.Headers[0].Value)
	assert.Equal(t, "submitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_PublishReport(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	rec := &recordingWriter{}
	w := &Writer{writer: rec, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.PublishReport(context.Background(), testReport()))

	require.Len(t, rec.msgs, 1)
	_, err := uuid.ParseBytes(rec.msgs[0].Key)
	require.NoError(t, err, "key should be a generated uuid")
	assert.Equal(t, []byte(now.Format(time.RFC3339)), rec.msgs[0].Headers[1].Value)

	require.NoError(t, w.Close())
	assert.True(t, rec.closed)
}

func TestWriter_PublishReport_WriteError(t *testing.T) {
	rec := &recordingWriter{err: errors.New("leader not available")}
	w := &Writer{writer: rec, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.PublishReport(context.Background(), testReport())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
