package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/safescape-map-service/internal/observability"
)

var (
	// ErrInstallFailed wraps the first asset that could not be cached.
	ErrInstallFailed = errors.New("offline cache install failed")
	// ErrInvalidState is returned when a lifecycle phase is triggered out of order.
	ErrInvalidState = errors.New("invalid worker state")
)

// State is a worker lifecycle phase.
type State int

const (
	Parsed State = iota
	Installing
	Installed
	Activating
	Activated
	Redundant
)

var stateNames = [...]string{"parsed", "installing", "installed", "activating", "activated", "redundant"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Worker is the offline cache worker for one cache version.
type Worker struct {
	name    string
	assets  []string
	storage CacheStorage
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.RWMutex
	state State
}

// NewWorker creates a worker that caches assets under name.
func NewWorker(name string, assets []string, storage CacheStorage, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Worker {
	return &Worker{
		name:    name,
		assets:  append([]string(nil), assets...),
		storage: storage,
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
	}
}

// Name returns the versioned cache name.
func (w *Worker) Name() string { return w.name }

// State returns the current lifecycle phase.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, w.state, from)
	}
	w.state = to
	return nil
}

func (w *Worker) set(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Start installs and, on success, activates immediately.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

// Install populates the versioned cache with every asset. Any fetch error or
// non-2xx response fails the install, stores nothing and makes the worker
// redundant.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(Parsed, Installing); err != nil {
		return err
	}
	w.logger.Info("installing offline cache", "cache", w.name, "assets", len(w.assets))

	entries := make([]Entry, 0, len(w.assets))
	for _, asset := range w.assets {
		entry, err := w.fetcher.Fetch(ctx, asset)
		if err == nil && (entry.Status < 200 || entry.Status > 299) {
			err = fmt.Errorf("%s: status %d", asset, entry.Status)
		}
		if err != nil {
			return w.failInstall(err)
		}
		entry.URL = asset
		entries = append(entries, entry)
	}

	if err := w.storage.PutAll(ctx, w.name, entries); err != nil {
		return w.failInstall(err)
	}

	w.set(Installed)
	w.metrics.WorkerInstalls.WithLabelValues("success").Inc()
	return nil
}

func (w *Worker) failInstall(err error) error {
	w.set(Redundant)
	w.metrics.WorkerInstalls.WithLabelValues("error").Inc()
	w.logger.Error("offline cache install failed", "cache", w.name, "error", err)
	return fmt.Errorf("%w: %w", ErrInstallFailed, err)
}

// Activate deletes every cache other than the current one and then starts
// intercepting fetches.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.transition(Installed, Activating); err != nil {
		return err
	}
	w.logger.Info("activating offline cache", "cache", w.name)

	names, err := w.storage.Keys(ctx)
	if err != nil {
		w.set(Installed)
		return fmt.Errorf("list caches: %w", err)
	}
	for _, name := range names {
		if name == w.name {
			continue
		}
		if _, err := w.storage.Delete(ctx, name); err != nil {
			w.set(Installed)
			return fmt.Errorf("delete cache %s: %w", name, err)
		}
		w.logger.Info("deleted old cache", "cache", name)
		w.metrics.CachesPruned.Inc()
	}

	w.set(Activated)
	w.metrics.WorkerActive.Set(1)
	return nil
}

// Match returns the cached entry for url once the worker is active.
func (w *Worker) Match(ctx context.Context, url string) (Entry, bool) {
	if w.State() != Activated {
		return Entry{}, false
	}
	entry, ok, err := w.storage.Match(ctx, w.name, url)
	if err != nil {
		w.logger.Warn("offline cache lookup failed", "url", url, "error", err)
		ok = false
	}
	if ok {
		w.metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		w.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return entry, ok
}

// CheckReadiness reports whether the worker is intercepting fetches.
func (w *Worker) CheckReadiness(_ context.Context) error {
	if s := w.State(); s != Activated {
		return fmt.Errorf("offline cache worker is %s", s)
	}
	return nil
}
