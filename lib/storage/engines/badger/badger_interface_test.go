package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
	storagetesting "github.com/ValentinKolb/tKV/lib/storage/testing"
	"github.com/dgraph-io/badger/v4"
)

func Test(t *testing.T) {
	storagetesting.RunStorageTests(t, "BadgerStorage", func(t *testing.T, clock storage.Clock) storage.Storage {
		s, err := NewBadgerStorage(&storage.Options{Clock: clock})
		if err != nil {
			t.Fatalf("cannot open badger storage: %v", err)
		}
		return s
	})
}

func TestCorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, err := NewBadgerStorage(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// bypass the encoder
	impl := s.(*badgerImpl)
	err = impl.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey("broken"), []byte{0x07, 0x01})
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Get(ctx, "broken"); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from Get, got %v", err)
	}
	if _, err := s.GetTTL(ctx, "broken"); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from GetTTL, got %v", err)
	}
	if _, err := s.GetAllKeys(ctx, ""); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from GetAllKeys, got %v", err)
	}
	if err := s.DeletePrefix(ctx, "bro"); err != nil {
		t.Errorf("corrupt entries must still be deletable: %v", err)
	}
	if keys, err := s.GetAllKeys(ctx, ""); err != nil || len(keys) != 0 {
		t.Errorf("expected no keys, got %v (%v)", keys, err)
	}
}

func TestReservedKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewBadgerStorage(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, key := range []string{"", "!badger!head", "!badger!"} {
		if err := s.Set(ctx, key, storage.NewString("v", -1)); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
	}

	// the caller keys live next to badger's own metadata without touching it
	impl := s.(*badgerImpl)
	err = impl.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey("!badger!head"))
		if err != nil {
			return err
		}
		if item.Key()[0] != keyPrefix {
			t.Errorf("stored key %q misses the namespace prefix", item.Key())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	keys, err := s.GetAllKeys(ctx, "!badger")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "!badger!" || keys[1] != "!badger!head" {
		t.Errorf("unexpected keys %q", keys)
	}
}

func TestDeletePrefixLargerThanOneTransaction(t *testing.T) {
	ctx := context.Background()

	// a small memtable lowers the per transaction limits
	bopts := badger.DefaultOptions("").
		WithInMemory(true).
		WithMemTableSize(1 << 20).
		WithValueThreshold(1 << 10)
	s, err := open(nil, bopts)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	const n = 20_000
	for i := 0; i < n; i++ {
		if err := s.Set(ctx, fmt.Sprintf("bulk-%05d", i), storage.NewInteger(int64(i), -1)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := s.Set(ctx, "other", storage.NewString("kept", -1)); err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePrefix(ctx, "bulk-"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}

	keys, err := s.GetAllKeys(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "other" {
		t.Errorf("expected only %q to remain, got %d keys", "other", len(keys))
	}
}

func Benchmark(b *testing.B) {
	storagetesting.RunStorageBenchmarks(b, "BadgerStorage", func(b *testing.B) storage.Storage {
		s, err := NewBadgerStorage(nil)
		if err != nil {
			b.Fatal(err)
		}
		return s
	})
}
