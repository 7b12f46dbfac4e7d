/*
Package badgerdb implements storage.Storage on an in-memory BadgerDB instance.

Badger provides snapshot isolated transactions with optimistic conflict
detection. Each operation runs in exactly one transaction. Read paths that
find expired entries delete them in the transaction that observed them, so a
range scan commits its removals once.

Updates to a single key are serialized with a per-key lock. Reads do not take
the lock; if a read removed an entry that a concurrent writer just replaced,
one of the two commits fails the conflict check and that transaction is
repeated on a fresh snapshot. A conflict that persists, or a prefix delete
racing with a write, is reported as an InternalError.

Every key is stored behind a one byte namespace prefix. Badger itself rejects
empty keys and keys starting with "!badger!"; the prefix makes every caller
key valid while keeping the caller's byte order for prefix scans.

The database runs with disk persistence disabled; all data is lost on Close.
*/
package badgerdb
