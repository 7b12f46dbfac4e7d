package storage

import (
	"context"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Storage is the key-value contract implemented by every backend.
//
// Keys are arbitrary strings. All methods are safe for concurrent use. Each
// method runs as one atomic unit of work on the backend: it either takes full
// effect or none. A context that is already done when a method is called makes
// the method fail with an InternalError and no effect.
type Storage interface {
	// Get returns the value stored under key with its remaining TTL. The
	// boolean is false when the key is absent or expired; an expired entry is
	// deleted by the call.
	Get(ctx context.Context, key string) (*Value, bool, error)

	// GetAllKeys returns every live key that starts with prefix, in byte
	// order. Expired entries met during the scan are deleted and omitted. An
	// empty prefix matches all keys.
	GetAllKeys(ctx context.Context, prefix string) ([]string, error)

	// GetTTL returns the remaining lifetime of key in seconds, or -1 if the
	// value never expires. Absent or expired keys yield ValueNotFound.
	GetTTL(ctx context.Context, key string) (int64, error)

	// UpdateTTL replaces the lifetime of an existing key. A negative ttl
	// removes the expiry. Absent or expired keys yield ValueNotFound.
	UpdateTTL(ctx context.Context, key string, ttl int64) error

	// Set stores value under key, replacing any previous value. value.TTL is
	// the requested lifetime in seconds; a negative TTL never expires.
	Set(ctx context.Context, key string, value Value) error

	// Increment adds delta to the integer stored under key and returns the new
	// value. If the key is absent and def is not nil, a new integer with value
	// *def + delta and no expiry is created. An existing expiry is kept.
	Increment(ctx context.Context, key string, delta int64, def *int64) (*Value, error)

	// Decrement is the mirror of Increment and subtracts delta.
	Decrement(ctx context.Context, key string, delta int64, def *int64) (*Value, error)

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key that starts with prefix. An empty prefix
	// removes all keys.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases all resources held by the backend. Calls after Close are
	// undefined. Close may be called more than once.
	Close() error
}

// --------------------------------------------------------------------------
// Implementations
// --------------------------------------------------------------------------

// Implementation names a concrete backend.
type Implementation string

const (
	// ImplMemory is the map based backend guarded by a reader/writer lock
	ImplMemory Implementation = "memory"
	// ImplPebble is the durable LSM backend
	ImplPebble Implementation = "pebble"
	// ImplBadger is the in-memory MVCC backend
	ImplBadger Implementation = "badger"
)

// Implementations lists every backend in a stable order.
var Implementations = []Implementation{ImplMemory, ImplPebble, ImplBadger}

// ParseImplementation resolves a backend name. The historical names bredis,
// rocksdb and surrealkv are accepted as aliases.
func ParseImplementation(name string) (Implementation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "memory", "mem", "bredis":
		return ImplMemory, nil
	case "pebble", "rocksdb":
		return ImplPebble, nil
	case "badger", "surrealkv":
		return ImplBadger, nil
	default:
		return "", NewError(KindInitialFailed, fmt.Sprintf("unknown backend %q (expected one of memory, pebble, badger)", name))
	}
}

func (i Implementation) String() string {
	return string(i)
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a backend at construction time. Fields a backend does
// not need are ignored.
type Options struct {
	// Dir is the directory used by backends that write files. Any content in
	// it is removed on open and on close.
	Dir string
	// Clock supplies the current time. Nil means SystemClock.
	Clock Clock
}

// Now returns the current epoch second according to the configured clock.
func (o *Options) Now() int64 {
	if o == nil || o.Clock == nil {
		return SystemClock.Now()
	}
	return o.Clock.Now()
}

// ClockOrDefault returns the configured clock or SystemClock.
func (o *Options) ClockOrDefault() Clock {
	if o == nil || o.Clock == nil {
		return SystemClock
	}
	return o.Clock
}
