/*
Package memory implements storage.Storage on a plain Go map.

All entries live in one map guarded by a single sync.RWMutex. Every read path
may delete expired entries, so reads take the write lock just like writes;
there is no separate read-only fast path. Holding the lock for the whole
operation makes counters, lazy expiry and prefix deletes atomic without
further coordination.

Nothing is persisted. Closing the store drops all entries.
*/
package memory
