package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

var _ weather.KVStore = (*MemoryStore)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is a concurrency-safe in-memory key/value store. Expired
// entries are hidden from Get immediately but only reclaimed by DeleteExpired.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry

	// retention configuration
	maxEntries int // 0 = unlimited

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore. If maxEntries is <= 0, it is
// treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || e.expired(s.now()) {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value under key. A ttl <= 0 stores without expiry.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	now := s.now()
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = e

	// Enforce retention by count, dropping whatever expires soonest.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		s.evictOneLocked(now)
	}
	return nil
}

func (s *MemoryStore) evictOneLocked(now time.Time) {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			return
		}
		if e.expiresAt.IsZero() {
			continue
		}
		if !found || e.expiresAt.Before(soonest) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if !found {
		// Only non-expiring entries left; drop an arbitrary one.
		for k := range s.data {
			victim = k
			break
		}
	}
	delete(s.data, victim)
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }
