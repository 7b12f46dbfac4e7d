package badgerdb

import (
	"context"
	"errors"
	"sync"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/lib/storage/util"
	"github.com/dgraph-io/badger/v4"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("storage/badger")

// badgerLogger lowers badger's chatty info messages to debug level
type badgerLogger struct {
	logger.ILogger
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.ILogger.Debugf(format, args...)
}

// badgerImpl is the badger backed storage
type badgerImpl struct {
	db    *badger.DB
	clock storage.Clock
	locks *util.KeyLock

	closeOnce sync.Once
	closeErr  error
}

// NewBadgerStorage opens a fresh in-memory badger database. opts may be nil;
// opts.Dir is ignored. Failures are reported as InitialFailed.
func NewBadgerStorage(opts *storage.Options) (storage.Storage, error) {
	s, err := open(opts, badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func open(opts *storage.Options, bopts badger.Options) (*badgerImpl, error) {
	db, err := badger.Open(bopts.WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, storage.InitialFailed(err, "cannot open badger database")
	}

	log.Infof("opened in-memory badger storage")
	return &badgerImpl{
		db:    db,
		clock: opts.ClockOrDefault(),
		locks: util.NewKeyLock(),
	}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// wrap converts badger errors into storage errors
func wrap(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return storage.Internal(err, msg+": transaction conflict")
	case errors.Is(err, badger.ErrTxnTooBig):
		return storage.Internal(err, msg+": transaction too big")
	default:
		return storage.Internal(err, msg)
	}
}

// keyPrefix is prepended to every stored key. Badger rejects empty keys and
// keys in its internal "!badger!" namespace; with the prefix every caller key
// is valid and the byte order of caller keys is preserved.
const keyPrefix = 'k'

// maxRetries bounds how often a transaction is repeated after losing a
// conflict against a concurrent one
const maxRetries = 8

func dbKey(key string) []byte {
	b := make([]byte, 0, len(key)+1)
	b = append(b, keyPrefix)
	return append(b, key...)
}

func userKey(k []byte) string {
	return string(k[1:])
}

// readUpdate runs fn in a read-write transaction without taking a key lock.
// fn may delete expired entries it observed; if that commit conflicts with a
// concurrent write the whole read is repeated on a fresh snapshot.
func (s *badgerImpl) readUpdate(fn func(txn *badger.Txn, now int64) error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		now := s.clock.Now()
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(txn, now)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		log.Debugf("read conflicted with a concurrent write, retrying (attempt %d)", attempt+1)
	}
	if err != nil {
		return storage.Internal(err, "badger read failed")
	}
	return nil
}

// readRecord loads and decodes the record stored under key inside txn
func readRecord(txn *badger.Txn, key []byte) (storage.Record, bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storage.Record{}, false, nil
	}
	if err != nil {
		return storage.Record{}, false, wrap(err, "badger get failed")
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return storage.Record{}, false, wrap(err, "badger read failed")
	}
	rec, err := storage.DecodeRecord(raw)
	if err != nil {
		return storage.Record{}, false, err
	}
	return rec, true, nil
}

func writeRecord(txn *badger.Txn, key []byte, rec storage.Record) error {
	raw, err := rec.Encode()
	if err != nil {
		return err
	}
	return wrap(txn.Set(key, raw), "badger set failed")
}

// update runs fn in a read-write transaction while holding the lock for key
// and commits it if fn succeeds. Writers to the same key are serialized by the
// lock; a conflict with a lock free read that removed an expired entry is
// resolved by running fn again on a fresh transaction.
func (s *badgerImpl) update(key string, fn func(txn *badger.Txn) error) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = s.updateOnce(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
		log.Debugf("update of %q conflicted, retrying (attempt %d)", key, attempt+1)
	}
	return err
}

func (s *badgerImpl) updateOnce(fn func(txn *badger.Txn) error) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return wrap(txn.Commit(), "badger commit failed")
}

// live reads key and deletes it in the same transaction if it is expired
func (s *badgerImpl) live(key string) (rec storage.Record, found bool, now int64, err error) {
	k := dbKey(key)
	err = s.readUpdate(func(txn *badger.Txn, ts int64) error {
		now = ts
		var err error
		rec, found, err = readRecord(txn, k)
		if err != nil || !found {
			return err
		}
		if _, expired := rec.Remaining(now); expired {
			found = false
			log.Debugf("removed expired key %q", key)
			return wrap(txn.Delete(k), "badger delete failed")
		}
		return nil
	})
	if err != nil {
		return storage.Record{}, false, now, err
	}
	return rec, found, now, nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

func (s *badgerImpl) Get(ctx context.Context, key string) (*storage.Value, bool, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, false, err
	}
	rec, found, now, err := s.live(key)
	if err != nil || !found {
		return nil, false, err
	}
	return rec.Value(now), true, nil
}

// GetAllKeys scans the prefix and deletes the expired entries it finds in the
// same transaction.
func (s *badgerImpl) GetAllKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return nil, err
	}
	p := dbKey(prefix)

	var keys []string
	err := s.readUpdate(func(txn *badger.Txn, now int64) error {
		keys = []string{}
		var expired [][]byte

		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				it.Close()
				return wrap(err, "badger read failed")
			}
			rec, err := storage.DecodeRecord(raw)
			if err != nil {
				it.Close()
				return err
			}
			k := item.KeyCopy(nil)
			if _, exp := rec.Remaining(now); exp {
				expired = append(expired, k)
				continue
			}
			keys = append(keys, userKey(k))
		}
		it.Close()

		for _, k := range expired {
			if err := txn.Delete(k); err != nil {
				return wrap(err, "badger delete failed")
			}
			log.Debugf("removed expired key %q", userKey(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *badgerImpl) GetTTL(ctx context.Context, key string) (int64, error) {
	if err := storage.CheckContext(ctx); err != nil {
		return 0, err
	}
	rec, found, now, err := s.live(key)
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

// modify reads the live record for key, lets fn compute the replacement and
// writes it, all inside one transaction. Expired records are deleted in the
// same transaction and passed to fn as absent. If fn fails after an expired
// record was deleted, the deletion is still committed.
func (s *badgerImpl) modify(ctx context.Context, key string, fn func(current *storage.Record, now int64) (*storage.Record, error)) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}

	var fnErr error
	err := s.update(key, func(txn *badger.Txn) error {
		fnErr = nil
		now := s.clock.Now()
		k := dbKey(key)

		var current *storage.Record
		rec, found, err := readRecord(txn, k)
		if err != nil {
			return err
		}
		removed := false
		if found {
			if _, expired := rec.Remaining(now); expired {
				if err := txn.Delete(k); err != nil {
					return wrap(err, "badger delete failed")
				}
				removed = true
			} else {
				current = &rec
			}
		}

		next, err := fn(current, now)
		if err != nil {
			if !removed {
				return err
			}
			fnErr = err
			return nil
		}
		return writeRecord(txn, k, *next)
	})
	if err != nil {
		return err
	}
	return fnErr
}

func (s *badgerImpl) UpdateTTL(ctx context.Context, key string, ttl int64) error {
	return s.modify(ctx, key, func(current *storage.Record, now int64) (*storage.Record, error) {
		if current == nil {
			return nil, storage.NotFound(key)
		}
		current.ExpiresAt = storage.ExpiresAt(ttl, now)
		return current, nil
	})
}

func (s *badgerImpl) Set(ctx context.Context, key string, value storage.Value) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	return s.update(key, func(txn *badger.Txn) error {
		return writeRecord(txn, dbKey(key), storage.NewRecord(value, s.clock.Now()))
	})
}

func (s *badgerImpl) Increment(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return s.applyDelta(ctx, key, delta, def)
}

func (s *badgerImpl) Decrement(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	return s.applyDelta(ctx, key, -delta, def)
}

func (s *badgerImpl) applyDelta(ctx context.Context, key string, delta int64, def *int64) (*storage.Value, error) {
	var result *storage.Value
	err := s.modify(ctx, key, func(current *storage.Record, now int64) (*storage.Record, error) {
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

func (s *badgerImpl) Delete(ctx context.Context, key string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	return s.update(key, func(txn *badger.Txn) error {
		return wrap(txn.Delete(dbKey(key)), "badger delete failed")
	})
}

// DeletePrefix scans and deletes in one transaction. A range too large for a
// single transaction (badger.ErrTxnTooBig) is committed in several steps; in
// that case the delete is not atomic and a failure in a later step leaves the
// keys of the earlier steps deleted.
func (s *badgerImpl) DeletePrefix(ctx context.Context, prefix string) error {
	if err := storage.CheckContext(ctx); err != nil {
		return err
	}
	p := dbKey(prefix)

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = p
	it := txn.NewIterator(opts)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		err := txn.Delete(k)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return wrap(err, "badger commit failed")
			}
			txn = s.db.NewTransaction(true)
			err = txn.Delete(k)
		}
		if err != nil {
			return wrap(err, "badger delete failed")
		}
	}
	return wrap(txn.Commit(), "badger commit failed")
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *badgerImpl) Close() error {
	s.closeOnce.Do(func() {
		if err := s.db.Close(); err != nil {
			s.closeErr = storage.Internal(err, "cannot close badger database")
		}
		log.Infof("closed in-memory badger storage")
	})
	return s.closeErr
}
