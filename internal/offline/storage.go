package offline

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// Entry is a cached response.
type Entry struct {
	URL    string      `json:"url"`
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// CacheStorage holds named caches of entries.
type CacheStorage interface {
	// Keys lists cache names in creation order.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes a cache and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// PutAll stores entries in the named cache, creating it if needed. Either
	// every entry is stored or none is.
	PutAll(ctx context.Context, name string, entries []Entry) error
	// Match looks up url in the named cache.
	Match(ctx context.Context, name, url string) (Entry, bool, error)
}

// MemoryStorage is an in-process CacheStorage.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]map[string]Entry
	order  map[string]int
	seq    int
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		caches: make(map[string]map[string]Entry),
		order:  make(map[string]int),
	}
}

func (m *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m.order[names[i]] < m.order[names[j]] })
	return names, nil
}

func (m *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.caches[name]; !ok {
		return false, nil
	}
	delete(m.caches, name)
	delete(m.order, name)
	return true, nil
}

func (m *MemoryStorage) PutAll(_ context.Context, name string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cache, ok := m.caches[name]
	if !ok {
		cache = make(map[string]Entry)
		m.caches[name] = cache
		m.seq++
		m.order[name] = m.seq
	}
	for _, e := range entries {
		cache[e.URL] = cloneEntry(e)
	}
	return nil
}

func (m *MemoryStorage) Match(_ context.Context, name, url string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.caches[name][url]
	if !ok {
		return Entry{}, false, nil
	}
	return cloneEntry(e), true, nil
}

func cloneEntry(e Entry) Entry {
	e.Header = e.Header.Clone()
	e.Body = append([]byte(nil), e.Body...)
	return e
}
