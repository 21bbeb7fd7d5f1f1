package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize bounds the in-process cache when no size is configured.
const DefaultMemorySize = 512

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryService implements CacheService with a bounded LRU. Expiry is checked
// against the injected clock on read.
type MemoryService struct {
	entries *lru.Cache[string, memoryEntry]
	now     Clock
}

// NewMemoryService creates an in-process cache holding up to size entries.
// A nil clock uses time.Now.
func NewMemoryService(size int, now Clock) *MemoryService {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if now == nil {
		now = time.Now
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, memoryEntry](size)
	return &MemoryService{entries: entries, now: now}
}

// Get returns the stored value, or ErrCacheMiss when absent or expired
func (m *MemoryService) Get(key string) ([]byte, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.entries.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores value. A non-positive expiration never expires.
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}
	m.entries.Add(key, entry)
	return nil
}

// Delete removes key
func (m *MemoryService) Delete(key string) error {
	m.entries.Remove(key)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryService) Len() int {
	return m.entries.Len()
}
