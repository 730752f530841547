package store

import (
	"sync"
	"time"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

type cachedValue struct {
	value    imagery.MonthlyValue
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of monthly values.
type MemoryStore struct {
	mu sync.RWMutex

	// key: roi|feature|month, value: cached monthly value
	data map[string]cachedValue
	// insertion order, oldest first
	order []string

	// retention configuration
	maxEntries int           // max number of cached values
	maxAge     time.Duration // optional max age for cached values

	now func() time.Time
}

var _ imagery.MonthlyCache = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited; likewise maxAge.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]cachedValue),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Put stores a value and enforces the entry limit.
func (s *MemoryStore) Put(key string, v imagery.MonthlyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		s.removeFromOrder(key)
	}
	s.order = append(s.order, key)
	s.data[key] = cachedValue{value: v, storedAt: s.now()}

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = s.order[over:]
	}
}

// Get returns a cached value that has not outlived maxAge.
func (s *MemoryStore) Get(key string) (imagery.MonthlyValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cv, ok := s.data[key]
	if !ok || s.expired(cv) {
		return imagery.MonthlyValue{}, false
	}
	return cv.value, true
}

// PurgeExpired drops every value older than maxAge and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Entries are appended in storedAt order, so expired ones form a prefix.
	i := 0
	for ; i < len(s.order); i++ {
		if !s.expired(s.data[s.order[i]]) {
			break
		}
		delete(s.data, s.order[i])
	}
	s.order = s.order[i:]
	return i
}

// Len returns the number of cached values, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(cv cachedValue) bool {
	return s.maxAge > 0 && s.now().Sub(cv.storedAt) > s.maxAge
}

func (s *MemoryStore) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
