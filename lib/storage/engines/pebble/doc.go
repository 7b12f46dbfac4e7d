/*
Package pebbledb implements storage.Storage on top of the Pebble LSM engine.

Every record is stored under its raw key with the BCS encoded storage.Record
as value. Writes go through a pebble batch that is committed with pebble.Sync;
read-modify-write operations use an indexed batch so the read and the write
happen in one unit. Operations that touch the same key are serialized with a
per-key lock, which keeps counters exact under concurrency.

The backing directory is scratch space: it is wiped when the store opens and
removed again when it closes.
*/
package pebbledb
