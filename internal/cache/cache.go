// Package cache is the process-wide best-effort response cache. Entries
// expire after their own TTL; stale reads are acceptable.
package cache

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize bounds the number of entries held at once.
const DefaultSize = 1024

// Cache is the capability adapters depend on.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Clear()
}

// Memory keeps entries in process. Each TTL gets its own expirable LRU,
// since expirable.LRU takes one TTL per instance.
type Memory struct {
	size int

	mu     sync.Mutex
	byTTL  map[time.Duration]*expirable.LRU[string, []byte]
	keyTTL map[string]time.Duration
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{
		size:   size,
		byTTL:  make(map[time.Duration]*expirable.LRU[string, []byte]),
		keyTTL: make(map[string]time.Duration),
	}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	ttl, ok := m.keyTTL[key]
	lru := m.byTTL[ttl]
	m.mu.Unlock()
	if !ok || lru == nil {
		return nil, false
	}
	v, ok := lru.Get(key)
	if !ok {
		m.mu.Lock()
		if m.keyTTL[key] == ttl {
			delete(m.keyTTL, key)
		}
		m.mu.Unlock()
	}
	return v, ok
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.keyTTL[key]; ok && old != ttl {
		m.byTTL[old].Remove(key)
	}
	lru, ok := m.byTTL[ttl]
	if !ok {
		lru = expirable.NewLRU[string, []byte](m.size, nil, ttl)
		m.byTTL[ttl] = lru
	}
	lru.Add(key, value)
	m.keyTTL[key] = ttl
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lru := range m.byTTL {
		lru.Purge()
	}
	m.keyTTL = make(map[string]time.Duration)
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, lru := range m.byTTL {
		n += lru.Len()
	}
	return n
}

// GetJSON decodes a cached JSON value into v. A miss or an undecodable entry
// reports false.
func GetJSON(c Cache, key string, v any) bool {
	if c == nil {
		return false
	}
	b, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// SetJSON encodes v and caches it. Values that do not encode are skipped.
func SetJSON(c Cache, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(key, b, ttl)
}
