package httpadapter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/mapview"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrSessionNotFound is returned for unknown, closed or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session registry defaults.
const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 10000
)

type session struct {
	mu   sync.Mutex
	view *mapview.View

	// lastSeen is the unix nano time of the last Open or With.
	lastSeen atomic.Int64
}

// Sessions holds one map view per open page. Sessions idle for longer than
// the idle TTL are dropped by Sweep, and opening a session beyond the cap
// evicts the least recently used one.
type Sessions struct {
	mu      sync.RWMutex
	byID    map[string]*session
	metrics *observability.Metrics

	clock   clockwork.Clock
	idleTTL time.Duration
	max     int
}

// SessionOption configures a Sessions registry.
type SessionOption func(*Sessions)

// WithClock sets the clock used for idle tracking.
func WithClock(c clockwork.Clock) SessionOption {
	return func(s *Sessions) { s.clock = c }
}

// WithIdleTTL sets how long a session may go unused before Sweep drops it.
func WithIdleTTL(d time.Duration) SessionOption {
	return func(s *Sessions) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) SessionOption {
	return func(s *Sessions) {
		if n > 0 {
			s.max = n
		}
	}
}

// NewSessions creates an empty session registry.
func NewSessions(metrics *observability.Metrics, opts ...SessionOption) *Sessions {
	s := &Sessions{
		byID:    make(map[string]*session),
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		idleTTL: DefaultSessionIdleTTL,
		max:     DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open registers view and returns its session id.
func (s *Sessions) Open(view *mapview.View) string {
	id := uuid.NewString()
	sess := &session{view: view}
	sess.lastSeen.Store(s.clock.Now().UnixNano())

	s.mu.Lock()
	for len(s.byID) >= s.max {
		s.evictOldestLocked()
	}
	s.byID[id] = sess
	n := len(s.byID)
	s.mu.Unlock()
	s.metrics.ActiveSessions.Set(float64(n))
	return id
}

func (s *Sessions) evictOldestLocked() {
	var oldestID string
	var oldest int64
	for id, sess := range s.byID {
		if seen := sess.lastSeen.Load(); oldestID == "" || seen < oldest {
			oldestID, oldest = id, seen
		}
	}
	delete(s.byID, oldestID)
	s.metrics.SessionsEvicted.WithLabelValues("capacity").Inc()
}

// Close discards the session. It reports whether the session existed.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	n := len(s.byID)
	s.mu.Unlock()
	s.metrics.ActiveSessions.Set(float64(n))
	return ok
}

// With runs fn on the session's view while holding the session lock.
func (s *Sessions) With(id string, fn func(v *mapview.View) error) error {
	s.mu.RLock()
	sess, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.lastSeen.Store(s.clock.Now().UnixNano())
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.view)
}

// Sweep drops every session unused for longer than the idle TTL and returns
// how many were dropped.
func (s *Sessions) Sweep() int {
	cutoff := s.clock.Now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.byID {
		if sess.lastSeen.Load() < cutoff {
			delete(s.byID, id)
			evicted++
		}
	}
	n := len(s.byID)
	s.mu.Unlock()

	if evicted > 0 {
		s.metrics.SessionsEvicted.WithLabelValues("idle").Add(float64(evicted))
	}
	s.metrics.ActiveSessions.Set(float64(n))
	return evicted
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
