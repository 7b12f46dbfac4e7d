package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("storage/memory")

// memoryImpl is the map based backend
type memoryImpl struct {
	mu     sync.RWMutex
	data   map[string]storage.Record
	clock  storage.Clock
	closed bool
}

// NewMemoryStorage creates an empty in-memory store. opts may be nil.
func NewMemoryStorage(opts *storage.Options) storage.Storage {
	log.Debugf("creating in-memory storage")
	return &memoryImpl{
		data:  make(map[string]storage.Record),
		clock: opts.ClockOrDefault(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// lookup returns the live record for key. The caller must hold the lock. expired is true when the key exists but its lifetime is over.
func (m *memoryImpl) lookup(key string, now int64) (rec storage.Record, found bool, expired bool) {
	rec, found = m.data[key]
	if !found {
		return storage.Record{}, false, false
	}
	if _, exp := rec.Remaining(now); exp {
		return storage.Record{}, false, true
	}
	return rec, true, false
}

// read looks up key under the write lock and deletes the entry if it turned
// out to be expired.
func (m *memoryImpl) read(key string) (storage.Record, bool, int64) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, found, expired := m.lookup(key, now)
	if expired {
		delete(m.data, key)
		log.Debugf("removed expired key %q", key)
	}
	return rec, found, now
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

func (m *memoryImpl) Get(ctx context.Context, key string) (*storage.Value, bool, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, false, err
	}
	rec, found, now := m.read(key)
	if !found {
		return nil, false, nil
	}
	v := rec.Value(now)
	v.Data = append([]byte(nil), v.Data...)
	return v, true, nil
}

func (m *memoryImpl) GetAllKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}
	now := m.clock.Now()

	keys := []string{}
	m.mu.Lock()
	for key, rec := range m.data {
		if !storage.HasPrefix(key, prefix) {
			continue
		}
		if _, exp := rec.Remaining(now); exp {
			delete(m.data, key)
			log.Debugf("removed expired key %q", key)
			continue
		}
		keys = append(keys, key)
	}
	m.mu.Unlock()

	sort.Strings(keys)
	return keys, nil
}

func (m *memoryImpl) GetTTL(ctx context.Context, key string) (int64, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return 0, err
	}
	rec, found, now := m.read(key)
	if !found {
		return 0, storage.NotFound(key)
	}
	ttl, _ := rec.Remaining(now)
	return ttl, nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

func (m *memoryImpl) UpdateTTL(ctx context.Context, key string, ttl int64) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, found, expired := m.lookup(key, now)
	if expired {
		delete(m.data, key)
	}
	if !found {
		return storage.NotFound(key)
	}
	rec.ExpiresAt = storage.ExpiresAt(ttl, now)
	m.data[key] = rec
	return nil
}

func (m *memoryImpl) Set(ctx context.Context, key string, value storage.Value) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	now := m.clock.Now()

	// the caller may reuse its buffer
	data := make([]byte, len(value.Data))
	copy(data, value.Data)
	value.Data = data

	m.mu.Lock()
	m.data[key] = storage.NewRecord(value, now)
	m.mu.Unlock()
	return nil
}

func (m *memoryImpl) Increment(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return m.applyDelta(ctx, key, delta, def)
}

func (m *memoryImpl) Decrement(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return m.applyDelta(ctx, key, -delta, def)
}

// applyDelta runs the whole read-modify-write under the write lock.
func (m *memoryImpl) applyDelta(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var current *storage.Record
	rec, found, expired := m.lookup(key, now)
	if expired {
		delete(m.data, key)
	}
	if found {
		current = &rec
	}

	next, err := storage.ApplyDelta(key, current, delta, def)
	if err != nil {
		return nil, err
	}
	m.data[key] = next
	return next.Value(now), nil
}

func (m *memoryImpl) Delete(ctx context.Context, key string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryImpl) DeletePrefix(ctx context.Context, prefix string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix == "" {
		m.data = make(map[string]storage.Record)
		return nil
	}
	for key := range m.data {
		if storage.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (m *memoryImpl) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	log.Infof("closing in-memory storage with %d entries", len(m.data))
	m.data = make(map[string]storage.Record)
	return nil
}
