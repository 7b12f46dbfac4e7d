// Package engines selects a storage backend by name.
package engines

import (
	"github.com/ValentinKolb/tKV/lib/storage"
	badgerdb "github.com/ValentinKolb/tKV/lib/storage/engines/badger"
	"github.com/ValentinKolb/tKV/lib/storage/engines/memory"
	pebbledb "github.com/ValentinKolb/tKV/lib/storage/engines/pebble"
)

// Open constructs the backend named by impl. Unknown names and construction
// failures are reported as InitialFailed.
func Open(impl storage.Implementation, opts *storage.Options) (storage.Storage, error) {
	switch impl {
	case storage.ImplMemory:
		return memory.NewMemoryStorage(opts), nil
	case storage.ImplPebble:
		return pebbledb.NewPebbleStorage(opts)
	case storage.ImplBadger:
		return badgerdb.NewBadgerStorage(opts)
	default:
		return nil, storage.NewError(storage.KindInitialFailed, "unknown backend "+string(impl))
	}
}

// OpenByName parses name and opens the matching backend.
func OpenByName(name string, opts *storage.Options) (storage.Storage, error) {
	impl, err := storage.ParseImplementation(name)
	if err != nil {
		return nil, err
	}
	return Open(impl, opts)
}
