// Package quota tracks monthly search-provider usage against per-provider
// ceilings. Counters survive process restarts and reset when the calendar
// month rolls over.
package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Default monthly ceilings per provider.
const (
	SerpAPIQuota       = 100
	ContextualWebQuota = 10000
)

// Store tracks per-provider monthly call counts.
type Store interface {
	// Increment bumps the provider's counter and returns the new count.
	Increment(api string) (int, error)
	// Count returns the provider's count for the current month.
	Count(api string) (int, error)
	// Quota returns the provider's monthly ceiling, or 0 if unknown.
	Quota(api string) int
}

type record struct {
	Count     int    `json:"count"`
	LastReset string `json:"last_reset"`
}

// FileStore persists counters as a small JSON file keyed by provider name.
// Safe for concurrent use within one process; cross-process writers are
// not coordinated (the original design assumes low concurrency).
type FileStore struct {
	mu     sync.Mutex
	path   string
	quotas map[string]int
	now    func() time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithQuota overrides the monthly ceiling for a provider.
func WithQuota(api string, quota int) Option {
	return func(s *FileStore) { s.quotas[api] = quota }
}

// WithClock sets the time source, for month-rollover tests.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates a store persisting to path, creating parent
// directories as needed.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create quota directory: %w", err)
	}
	s := &FileStore{
		path: path,
		quotas: map[string]int{
			"serpapi":       SerpAPIQuota,
			"contextualweb": ContextualWebQuota,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Increment bumps the provider's counter, resetting first if the month
// rolled over, and rewrites the file.
func (s *FileStore) Increment(api string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.load()
	if err != nil {
		return 0, err
	}
	rec := s.resetIfStale(counters, api)
	rec.Count++
	counters[api] = rec
	if err := s.save(counters); err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// Count returns the current month's count for the provider.
func (s *FileStore) Count(api string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.load()
	if err != nil {
		return 0, err
	}
	rec := s.resetIfStale(counters, api)
	counters[api] = rec
	if err := s.save(counters); err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// Quota returns the monthly ceiling for the provider.
func (s *FileStore) Quota(api string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotas[api]
}

// resetIfStale zeroes the counter when its last-reset month differs from
// the current calendar month.
func (s *FileStore) resetIfStale(counters map[string]record, api string) record {
	thisMonth := s.now().Format("2006-01")
	rec := counters[api]
	if rec.LastReset != thisMonth {
		rec = record{Count: 0, LastReset: thisMonth}
	}
	return rec
}

func (s *FileStore) load() (map[string]record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quota file: %w", err)
	}
	counters := map[string]record{}
	if err := json.Unmarshal(data, &counters); err != nil {
		// A corrupt counter file should not wedge discovery; start over.
		return map[string]record{}, nil
	}
	return counters, nil
}

func (s *FileStore) save(counters map[string]record) error {
	data, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("encode quota file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write quota file: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and quota-less runs.
type MemStore struct {
	mu     sync.Mutex
	counts map[string]int
	quotas map[string]int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		counts: map[string]int{},
		quotas: map[string]int{
			"serpapi":       SerpAPIQuota,
			"contextualweb": ContextualWebQuota,
		},
	}
}

// Increment bumps the provider's counter.
func (s *MemStore) Increment(api string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[api]++
	return s.counts[api], nil
}

// Count returns the provider's counter.
func (s *MemStore) Count(api string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[api], nil
}

// Quota returns the provider's ceiling.
func (s *MemStore) Quota(api string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotas[api]
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemStore)(nil)
)
