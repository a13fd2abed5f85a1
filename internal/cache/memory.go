package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryConfig controls construction of a MemoryBackend.
type MemoryConfig struct {
	// MaxEntries bounds the number of live entries; inserting past this
	// limit evicts the least-recently-used entry. Zero means no limit.
	MaxEntries int
	// CleanupInterval controls how often the background sweep runs.
	// Cleanup is a hygiene pass only: eviction-on-read is what makes
	// expiration correct regardless of this cadence.
	CleanupInterval time.Duration
}

// DefaultMemoryConfig returns sensible defaults for a process-local cache.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxEntries:      10_000,
		CleanupInterval: time.Minute,
	}
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt int64 // unix nano; zero means no expiration
	listElem  *list.Element
}

// MemoryBackend is an in-process cache with LRU eviction on capacity and
// TTL-based expiration, used as the default CACHE_PROVIDER=memory backend.
// A doubly-linked list tracks recency (front is most-recently-used) beside
// the lookup map; both are guarded by mu.
type MemoryBackend struct {
	mu sync.Mutex

	entries map[string]*memoryEntry
	order   *list.List // of *memoryEntry, front = most recently used

	maxEntries int

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	closeOnce     sync.Once

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
}

// NewMemoryBackend constructs a MemoryBackend and starts its background
// cleanup loop; call Close to stop it.
func NewMemoryBackend(cfg MemoryConfig) *MemoryBackend {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	b := &MemoryBackend{
		entries:     make(map[string]*memoryEntry),
		order:       list.New(),
		maxEntries:  cfg.MaxEntries,
		stopCleanup: make(chan struct{}),
	}
	b.cleanupTicker = time.NewTicker(cfg.CleanupInterval)
	go b.cleanupLoop()
	return b
}

func (b *MemoryBackend) cleanupLoop() {
	for {
		select {
		case <-b.cleanupTicker.C:
			_ = b.Cleanup(context.Background())
		case <-b.stopCleanup:
			return
		}
	}
}

func (b *MemoryBackend) isExpired(e *memoryEntry, now int64) bool {
	return e.expiresAt > 0 && e.expiresAt <= now
}

// removeLocked deletes an entry from both the map and the list. Caller must
// hold mu.
func (b *MemoryBackend) removeLocked(e *memoryEntry) {
	delete(b.entries, e.key)
	b.order.Remove(e.listElem)
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		b.misses.Add(1)
		return nil, false, nil
	}
	if b.isExpired(e, time.Now().UnixNano()) {
		b.removeLocked(e)
		b.evictions.Add(1)
		b.misses.Add(1)
		return nil, false, nil
	}

	b.order.MoveToFront(e.listElem)
	b.hits.Add(1)

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value under key. opts.TTL of zero means the entry never
// expires on its own, per the Backend contract; there is no backend-level
// fallback TTL applied on the caller's behalf.
func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte, opts SetOptions) error {
	key = namespacedKey(opts.Namespace, key)
	var expiresAt int64
	if opts.TTL > 0 {
		expiresAt = time.Now().Add(opts.TTL).UnixNano()
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[key]; ok {
		existing.value = valueCopy
		existing.expiresAt = expiresAt
		b.order.MoveToFront(existing.listElem)
		b.sets.Add(1)
		return nil
	}

	if b.maxEntries > 0 && len(b.entries) >= b.maxEntries {
		b.evictLRULocked()
	}

	e := &memoryEntry{key: key, value: valueCopy, expiresAt: expiresAt}
	e.listElem = b.order.PushFront(e)
	b.entries[key] = e
	b.sets.Add(1)
	return nil
}

// evictLRULocked drops the least-recently-used entry. Caller must hold mu.
func (b *MemoryBackend) evictLRULocked() {
	back := b.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*memoryEntry)
	b.removeLocked(e)
	b.evictions.Add(1)
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return false, nil
	}
	b.removeLocked(e)
	b.deletes.Add(1)
	return true, nil
}

func (b *MemoryBackend) Has(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return false, nil
	}
	if b.isExpired(e, time.Now().UnixNano()) {
		b.removeLocked(e)
		b.evictions.Add(1)
		return false, nil
	}
	return true, nil
}

func (b *MemoryBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]*memoryEntry)
	b.order = list.New()
	b.hits.Store(0)
	b.misses.Store(0)
	b.sets.Store(0)
	b.deletes.Store(0)
	b.evictions.Store(0)
	return nil
}

func (b *MemoryBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UnixNano()
	var keys []string
	for k, e := range b.entries {
		if b.isExpired(e, now) {
			continue
		}
		if matchGlob(pattern, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (b *MemoryBackend) Cleanup(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UnixNano()
	for elem := b.order.Back(); elem != nil; {
		e := elem.Value.(*memoryEntry)
		prev := elem.Prev()
		if b.isExpired(e, now) {
			b.removeLocked(e)
			b.evictions.Add(1)
		}
		elem = prev
	}
	return nil
}

func (b *MemoryBackend) Stats() Stats {
	b.mu.Lock()
	size := int64(len(b.entries))
	b.mu.Unlock()

	return Stats{
		Hits:            b.hits.Load(),
		Misses:          b.misses.Load(),
		Sets:            b.sets.Load(),
		Deletes:         b.deletes.Load(),
		Evictions:       b.evictions.Load(),
		ApproximateSize: size,
	}
}

func (b *MemoryBackend) HealthCheck(ctx context.Context) bool { return true }

func (b *MemoryBackend) Close() error {
	b.closeOnce.Do(func() {
		b.cleanupTicker.Stop()
		close(b.stopCleanup)
	})
	return nil
}

func namespacedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
