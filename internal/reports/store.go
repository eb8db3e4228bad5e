// Package reports persists safety reports as a single JSON array in a
// key-value store.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
)

// Keys used in the key-value store.
const (
	ReportsKey = "safescapeReports"
	ThemeKey   = "theme"
)

// Themes accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrInvalidTheme is returned by SetTheme for values other than light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// KV is the persistent key-value storage the store writes to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by KV backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Publisher receives every report after it is stored.
type Publisher interface {
	PublishReport(ctx context.Context, report domain.Report) error
}

// Store is the report store. LoadAll never fails: missing or unreadable data
// yields an empty list. Appends are dropped with a warning when the backend
// rejects the write or the existing list cannot be read back.
type Store struct {
	kv        KV
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	// mu serializes read-modify-write cycles on ReportsKey.
	mu sync.Mutex
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithGeocoder enables reverse-geocoding of appended reports.
func WithGeocoder(g domain.Geocoder) Option {
	return func(s *Store) { s.geocoder = g }
}

// WithPublisher forwards appended reports to p.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// NewStore creates a report store on top of kv.
func NewStore(kv KV, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{kv: kv, logger: logger, metrics: metrics}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll returns every stored report in submission order. Storage and
// decode failures are logged and yield an empty list.
func (s *Store) LoadAll(ctx context.Context) []domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("stored reports unavailable, using empty list", "error", err)
		return []domain.Report{}
	}
	return list
}

// ReadAll is LoadAll without the fallback: it returns storage and decode
// failures to the caller.
func (s *Store) ReadAll(ctx context.Context) ([]domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) read(ctx context.Context) ([]domain.Report, error) {
	data, ok, err := s.kv.Get(ctx, ReportsKey)
	if err != nil {
		s.metrics.StorageErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("read reports: %w", err)
	}
	if !ok || len(data) == 0 {
		return []domain.Report{}, nil
	}

	var list []domain.Report
	if err := json.Unmarshal(data, &list); err != nil {
		s.metrics.StorageErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	if list == nil {
		list = []domain.Report{}
	}
	return list, nil
}

// Append validates report and writes the updated list back to storage. Only
// validation failures are returned; a failed write is logged and the report
// is returned as if stored.
func (s *Store) Append(ctx context.Context, report domain.Report) (domain.Report, error) {
	if err := report.Validate(); err != nil {
		s.metrics.ReportsRejected.Inc()
		return domain.Report{}, err
	}

	report = domain.EnrichWithPlace(ctx, report, s.geocoder, s.logger)

	if !s.write(ctx, report) {
		return report, nil
	}

	s.metrics.ReportsSubmitted.WithLabelValues(string(report.Type)).Inc()
	s.logger.Info("report appended", "type", report.Type, "lat", report.Lat, "lng", report.Lng)
	s.publish(ctx, report)
	return report, nil
}

func (s *Store) write(ctx context.Context, report domain.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Writing over a list that could not be read would lose every earlier
	// report, so the append is dropped instead.
	list, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("stored reports unavailable, report not persisted", "type", report.Type, "error", err)
		return false
	}
	data, err := json.Marshal(append(list, report))
	if err != nil {
		s.logger.Error("encode reports", "error", err)
		s.metrics.StorageErrors.WithLabelValues("append").Inc()
		return false
	}
	if err := s.kv.Put(ctx, ReportsKey, data); err != nil {
		s.logger.Warn("report storage unavailable, report not persisted", "type", report.Type, "error", err)
		s.metrics.StorageErrors.WithLabelValues("append").Inc()
		return false
	}
	return true
}

func (s *Store) publish(ctx context.Context, report domain.Report) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReport(ctx, report); err != nil {
		s.logger.Warn("publish report failed", "type", report.Type, "error", err)
		s.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return
	}
	s.metrics.ReportsPublished.WithLabelValues("success").Inc()
}

// Theme returns the stored theme preference, light by default.
func (s *Store) Theme(ctx context.Context) string {
	data, ok, err := s.kv.Get(ctx, ThemeKey)
	if err != nil {
		s.metrics.StorageErrors.WithLabelValues("theme").Inc()
		return ThemeLight
	}
	if !ok || string(data) != ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := s.kv.Put(ctx, ThemeKey, []byte(theme)); err != nil {
		s.logger.Warn("theme not persisted", "error", err)
		s.metrics.StorageErrors.WithLabelValues("theme").Inc()
	}
	return nil
}

// CheckReadiness reports whether the storage backend is reachable.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if p, ok := s.kv.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("report storage: %w", err)
		}
	}
	return nil
}
