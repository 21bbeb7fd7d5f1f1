package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	pkgerrors "sjsage522/pricescout/pkg/errors"

	"github.com/bradfitz/gomemcache/memcache"
)

const memcacheKeyPrefix = "pricescout:"

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(memcacheKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, pkgerrors.NewCache("memcache", "failed to get "+key, err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        memcacheKey(key),
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
	if err != nil {
		return pkgerrors.NewCache("memcache", "failed to set "+key, err)
	}
	return nil
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(memcacheKey(key))
	if err == nil || errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return pkgerrors.NewCache("memcache", "failed to delete "+key, err)
}

// Ping reports whether the server is reachable
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}

// memcacheKey hashes free-form keys; memcache rejects spaces and control
// characters and caps keys at 250 bytes.
func memcacheKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return memcacheKeyPrefix + hex.EncodeToString(sum[:])
}
