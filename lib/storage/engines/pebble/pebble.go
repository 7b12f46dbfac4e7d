package pebbledb

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/lib/storage/util"
	"github.com/cockroachdb/pebble"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("storage/pebble")

// pebbleImpl is the pebble backed storage
type pebbleImpl struct {
	db    *pebble.DB
	dir   string
	clock storage.Clock
	locks *util.KeyLock

	closeOnce sync.Once
	closeErr  error
}

// NewPebbleStorage opens a fresh pebble database in opts.Dir. An existing
// directory is wiped first. If opts.Dir is empty a temporary directory is
// used. Failures are reported as InitialFailed.
func NewPebbleStorage(opts *storage.Options) (storage.Storage, error) {
	dir := ""
	if opts != nil {
		dir = opts.Dir
	}

	if dir == "" {
		tmp, err := os.MkdirTemp("", "tkv-pebble-")
		if err != nil {
			return nil, storage.InitialFailed(err, "cannot create temporary directory")
		}
		dir = tmp
	} else {
		if err := os.RemoveAll(dir); err != nil {
			return nil, storage.InitialFailed(err, "cannot reset data directory "+dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storage.InitialFailed(err, "cannot create data directory "+dir)
		}
	}

	db, err := pebble.Open(dir, &pebble.Options{
		Logger: pebbleLogger{log: log},
	})
	if err != nil {
		return nil, storage.InitialFailed(err, "cannot open pebble database in "+dir)
	}

	log.Infof("opened pebble storage in %s", dir)
	return &pebbleImpl{
		db:    db,
		dir:   dir,
		clock: opts.ClockOrDefault(),
		locks: util.NewKeyLock(),
	}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// readRecord loads and decodes the record stored under key. found is false if
// the key does not exist.
func readRecord(r pebble.Reader, key []byte) (rec storage.Record, found bool, err error) {
	raw, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return storage.Record{}, false, nil
	}
	if err != nil {
		return storage.Record{}, false, storage.Internal(err, "pebble get failed")
	}
	defer closeQuietly(closer)

	rec, err = storage.DecodeRecord(raw)
	if err != nil {
		return storage.Record{}, false, err
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, true, nil
}

// writeRecord encodes rec and adds it to the batch
func writeRecord(b *pebble.Batch, key []byte, rec storage.Record) error {
	raw, err := rec.Encode()
	if err != nil {
		return err
	}
	if err := b.Set(key, raw, nil); err != nil {
		return storage.Internal(err, "pebble set failed")
	}
	return nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warningf("closing pebble resource failed: %v", err)
	}
}

// commit commits the batch durably and releases it
func commit(b *pebble.Batch) error {
	defer closeQuietly(b)
	if err := b.Commit(pebble.Sync); err != nil {
		return storage.Internal(err, "pebble commit failed")
	}
	return nil
}

// evict removes the given keys if they are still expired at now. Each key is
// re-checked under its lock so that a concurrent write is never lost.
func (p *pebbleImpl) evict(now int64, keys ...string) error {
	for _, key := range keys {
		if err := p.evictOne(now, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *pebbleImpl) evictOne(now int64, key string) error {
	unlock := p.locks.Lock(key)
	defer unlock()

	b := p.db.NewIndexedBatch()
	rec, found, err := readRecord(b, []byte(key))
	if err != nil || !found {
		closeQuietly(b)
		return err
	}
	if _, expired := rec.Remaining(now); !expired {
		closeQuietly(b)
		return nil
	}
	if err := b.Delete([]byte(key), nil); err != nil {
		closeQuietly(b)
		return storage.Internal(err, "pebble delete failed")
	}
	log.Debugf("removed expired key %q", key)
	return commit(b)
}

// live reads key and evicts it if it is expired
func (p *pebbleImpl) live(key string) (storage.Record, bool, int64, error) {
	now := p.clock.Now()
	rec, found, err := readRecord(p.db, []byte(key))
	if err != nil || !found {
		return storage.Record{}, false, now, err
	}
	if _, expired := rec.Remaining(now); expired {
		return storage.Record{}, false, now, p.evict(now, key)
	}
	return rec, true, now, nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

func (p *pebbleImpl) Get(ctx context.Context, key string) (*storage.Value, bool, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, false, err
	}
	rec, found, now, err := p.live(key)
	if err != nil || !found {
		return nil, false, err
	}
	return rec.Value(now), true, nil
}

func (p *pebbleImpl) GetAllKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}
	now := p.clock.Now()

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: storage.PrefixEnd([]byte(prefix)),
	})
	if err != nil {
		return nil, storage.Internal(err, "cannot create pebble iterator")
	}

	keys := []string{}
	var expired []string
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		if !storage.HasPrefix(key, prefix) {
			break
		}
		raw, err := iter.ValueAndErr()
		if err != nil {
			closeQuietly(iter)
			return nil, storage.Internal(err, "pebble iteration failed")
		}
		rec, err := storage.DecodeRecord(raw)
		if err != nil {
			closeQuietly(iter)
			return nil, err
		}
		if _, exp := rec.Remaining(now); exp {
			expired = append(expired, key)
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Close(); err != nil {
		return nil, storage.Internal(err, "pebble iteration failed")
	}

	if err := p.evict(now, expired...); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *pebbleImpl) GetTTL(ctx context.Context, key string) (int64, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return 0, err
	}
	rec, found, now, err := p.live(key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, storage.NotFound(key)
	}
	ttl, _ := rec.Remaining(now)
	return ttl, nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// update runs fn on the live record for key inside an indexed batch while
// holding the key lock. fn returns the record to write, or nil to write
// nothing. Expired records are deleted and passed to fn as absent.
func (p *pebbleImpl) update(ctx context.Context, key string, fn func(current *storage.Record, now int64) (*storage.Record, error)) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	unlock := p.locks.Lock(key)
	defer unlock()

	now := p.clock.Now()
	k := []byte(key)
	b := p.db.NewIndexedBatch()

	var current *storage.Record
	rec, found, err := readRecord(b, k)
	if err != nil {
		closeQuietly(b)
		return err
	}
	if found {
		if _, expired := rec.Remaining(now); expired {
			if err := b.Delete(k, nil); err != nil {
				closeQuietly(b)
				return storage.Internal(err, "pebble delete failed")
			}
		} else {
			current = &rec
		}
	}

	next, fnErr := fn(current, now)
	if fnErr != nil && b.Empty() {
		closeQuietly(b)
		return fnErr
	}
	if next != nil {
		if err := writeRecord(b, k, *next); err != nil {
			closeQuietly(b)
			return err
		}
	}
	if err := commit(b); err != nil {
		return err
	}
	return fnErr
}

func (p *pebbleImpl) UpdateTTL(ctx context.Context, key string, ttl int64) error {
	return p.update(ctx, key, func(current *storage.Record, now int64) (*storage.Record, error) {
		if current == nil {
			return nil, storage.NotFound(key)
		}
		current.ExpiresAt = storage.ExpiresAt(ttl, now)
		return current, nil
	})
}

func (p *pebbleImpl) Set(ctx context.Context, key string, value storage.Value) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	unlock := p.locks.Lock(key)
	defer unlock()

	b := p.db.NewBatch()
	if err := writeRecord(b, []byte(key), storage.NewRecord(value, p.clock.Now())); err != nil {
		closeQuietly(b)
		return err
	}
	return commit(b)
}

func (p *pebbleImpl) Increment(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return p.applyDelta(ctx, key, delta, def)
}

func (p *pebbleImpl) Decrement(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return p.applyDelta(ctx, key, -delta, def)
}

func (p *pebbleImpl) applyDelta(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	var result *storage.Value
	err := p.update(ctx, key, func(current *storage.Record, now int64) (*storage.Record, error) {
		next, err := storage.ApplyDelta(key, current, delta, def)
		if err != nil {
			return nil, err
		}
		result = next.Value(now)
		return &next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *pebbleImpl) Delete(ctx context.Context, key string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	unlock := p.locks.Lock(key)
	defer unlock()

	b := p.db.NewBatch()
	if err := b.Delete([]byte(key), nil); err != nil {
		closeQuietly(b)
		return storage.Internal(err, "pebble delete failed")
	}
	return commit(b)
}

func (p *pebbleImpl) DeletePrefix(ctx context.Context, prefix string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}

	start := []byte(prefix)
	end := storage.PrefixEnd(start)
	b := p.db.NewIndexedBatch()

	if end != nil {
		if err := b.DeleteRange(start, end, nil); err != nil {
			closeQuietly(b)
			return storage.Internal(err, "pebble delete range failed")
		}
		return commit(b)
	}

	// no upper bound exists, delete key by key
	iter, err := b.NewIter(&pebble.IterOptions{LowerBound: start})
	if err != nil {
		closeQuietly(b)
		return storage.Internal(err, "cannot create pebble iterator")
	}
	var keys [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	if err := iter.Close(); err != nil {
		closeQuietly(b)
		return storage.Internal(err, "pebble iteration failed")
	}
	for _, k := range keys {
		if err := b.Delete(k, nil); err != nil {
			closeQuietly(b)
			return storage.Internal(err, "pebble delete failed")
		}
	}
	return commit(b)
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Close closes the database and removes its directory.
func (p *pebbleImpl) Close() error {
	p.closeOnce.Do(func() {
		if err := p.db.Close(); err != nil {
			p.closeErr = storage.Internal(err, "cannot close pebble database")
		}
		if err := os.RemoveAll(p.dir); err != nil {
			log.Errorf("cannot remove data directory %s: %v", p.dir, err)
			if p.closeErr == nil {
				p.closeErr = storage.Internal(err, "cannot remove data directory")
			}
		}
		log.Infof("closed pebble storage in %s", p.dir)
	})
	return p.closeErr
}
