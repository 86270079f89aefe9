package idemstore

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used by NewMemory.
const DefaultShards = 32

type entry struct {
	insertedAt time.Time
	expire     time.Time
}

type shard struct {
	mu   sync.RWMutex
	data map[string]entry
}

// Memory implements Driver with thread-safe, sharded in-memory storage.
type Memory struct {
	shards []*shard
	closed atomic.Bool
}

// NewMemory creates an in-memory Driver with DefaultShards shards.
func NewMemory() *Memory {
	return NewMemoryShards(DefaultShards)
}

// NewMemoryShards creates an in-memory Driver with n shards. n < 1 is treated as 1.
func NewMemoryShards(n int) *Memory {
	if n < 1 {
		n = 1
	}
	m := &Memory{shards: make([]*shard, n)}
	for i := range m.shards {
		m.shards[i] = &shard{data: make(map[string]entry)}
	}
	return m
}

func (m *Memory) shard(key string) *shard {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

func (m *Memory) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed.Load() {
		return false, ErrStoreClosed
	}
	if e, ok := s.data[key]; ok {
		if !e.expired() {
			return false, nil
		}
		delete(s.data, key)
	}
	now := time.Now()
	s.data[key] = entry{insertedAt: now, expire: expiry(now, ttl)}
	return true, nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s := m.shard(key)

	// Fast path: optimistic read with RLock.
	s.mu.RLock()
	e, ok := s.data[key]
	closed := m.closed.Load()
	s.mu.RUnlock()

	if closed {
		return false, ErrStoreClosed
	}
	if !ok {
		return false, nil
	}
	if !e.expired() {
		return true, nil
	}

	// Slow path: entry expired, need write lock to delete.
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check after acquiring write lock, the key may have been re-added.
	e, ok = s.data[key]
	if !ok {
		return false, nil
	}
	if e.expired() {
		delete(s.data, key)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.closed.Load() {
		return false, ErrStoreClosed
	}
	e, ok := s.data[key]
	if !ok {
		return false, nil
	}
	delete(s.data, key)
	return !e.expired(), nil
}

// Clear removes all keys with the given prefix.
func (m *Memory) Clear(ctx context.Context, prefix string) error {
	if m.closed.Load() {
		return ErrStoreClosed
	}
	for _, s := range m.shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		for key := range s.data {
			if strings.HasPrefix(key, prefix) {
				delete(s.data, key)
			}
		}
		s.mu.Unlock()
	}
	return nil
}

// Len returns the number of live entries across all shards.
func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		for _, e := range s.data {
			if !e.expired() {
				n++
			}
		}
		s.mu.RUnlock()
	}
	return n
}

// InsertedAt returns when key was inserted, or false if it is absent.
func (m *Memory) InsertedAt(key string) (time.Time, bool) {
	s := m.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok || e.expired() {
		return time.Time{}, false
	}
	return e.insertedAt, true
}

// Close drops all entries. It is safe to call more than once.
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	for _, s := range m.shards {
		s.mu.Lock()
		s.data = make(map[string]entry)
		s.mu.Unlock()
	}
	return nil
}

func (e entry) expired() bool {
	if e.expire.IsZero() {
		return false
	}
	return time.Now().After(e.expire)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
