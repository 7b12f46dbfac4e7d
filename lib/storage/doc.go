/*
Package storage defines the contract shared by every tKV backend.

A Storage maps string keys to typed values. Every value carries an optional
lifetime in seconds and every backend honours the same lifecycle rules:

  - A write with a negative TTL never expires; any other TTL is turned into an
    absolute expiry (now + ttl) before the value is persisted.
  - Reads compute the remaining lifetime from the persisted expiry. When the
    remaining lifetime is zero or less the entry is deleted as a side effect of
    the read and the key is reported as absent.
  - Integer values are stored as decimal text so that counters and plain
    writes share one encoding.

There is no background sweeper. Expired entries that are never read again stay
in the backend until they are overwritten or removed by a prefix delete.

# Values

Two shapes exist for a value. Value is what callers send and receive: on Set
its TTL is the requested lifetime, on reads it is the remaining lifetime (-1
when the value never expires). Record is what a backend persists: the same
payload plus the absolute expiry timestamp. Backends convert between the two
with NewRecord and Record.Value.

# Errors

All failures are reported as *Error values with one of four kinds:
InitialFailed, InvalidValueType, ValueNotFound and InternalError. Use
errors.Is with the sentinel errors (ErrValueNotFound, ...) or KindOf to branch
on them.

# Backends

The backends live in the engines subpackages:

  - engines/memory: a map guarded by a single reader/writer lock
  - engines/pebble: a durable LSM engine, one indexed batch per call
  - engines/badger: an in-memory MVCC store, one transaction per call

engines.Open selects one of them by Implementation name.
*/
package storage
