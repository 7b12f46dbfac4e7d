package memory

import (
	"context"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
	storagetesting "github.com/ValentinKolb/tKV/lib/storage/testing"
)

func Test(t *testing.T) {
	storagetesting.RunStorageTests(t, "MemoryStorage", func(t *testing.T, clock storage.Clock) storage.Storage {
		return NewMemoryStorage(&storage.Options{Clock: clock})
	})
}

func Benchmark(b *testing.B) {
	storagetesting.RunStorageBenchmarks(b, "MemoryStorage", func(b *testing.B) storage.Storage {
		return NewMemoryStorage(nil)
	})
}

func TestReadsRemoveExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clock := storagetesting.NewManualClock(1_000)
	s := NewMemoryStorage(&storage.Options{Clock: clock})
	defer s.Close()
	impl := s.(*memoryImpl)

	for _, key := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, key, storage.NewString("v", 5)); err != nil {
			t.Fatal(err)
		}
	}
	clock.Advance(5)

	if _, found, err := s.Get(ctx, "a"); err != nil || found {
		t.Fatalf("expected a to be expired, found=%v err=%v", found, err)
	}
	if _, ok := impl.data["a"]; ok {
		t.Errorf("Get left the expired entry in the map")
	}

	if keys, err := s.GetAllKeys(ctx, ""); err != nil || len(keys) != 0 {
		t.Fatalf("expected no keys, got %v (%v)", keys, err)
	}
	if len(impl.data) != 0 {
		t.Errorf("GetAllKeys left %d expired entries in the map", len(impl.data))
	}
}
