package testing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tKV/lib/storage"
)

// StorageFactory creates a fresh, empty backend that reads time from clock.
type StorageFactory func(t *testing.T, clock storage.Clock) storage.Storage

// startTime is the epoch second every ManualClock of the suite starts at
const startTime int64 = 1_700_000_000

// RunStorageTests runs the conformance suite against a backend.
func RunStorageTests(t *testing.T, name string, factory StorageFactory) {
	t.Run(name, func(t *testing.T) {
		run := func(name string, fn func(t *testing.T, s storage.Storage, clock *ManualClock)) {
			t.Run(name, func(t *testing.T) {
				clock := NewManualClock(startTime)
				s := factory(t, clock)
				defer s.Close()
				fn(t, s, clock)
			})
		}

		run("Set&Get", testSetGet)
		run("GetAllKeys", testGetAllKeys)
		run("PrefixBoundaries", testPrefixBoundaries)
		run("GetTTL", testGetTTL)
		run("UpdateTTL", testUpdateTTL)
		run("Expiry", testExpiry)
		run("ExpiryDeletesOnRead", testExpiryDeletesOnRead)
		run("ScanDeletesAllExpired", testScanDeletesAllExpired)
		run("OpaqueKeys", testOpaqueKeys)
		run("Increment", testIncrement)
		run("Decrement", testDecrement)
		run("CounterDefaults", testCounterDefaults)
		run("CounterKeepsTTL", testCounterKeepsTTL)
		run("CounterErrors", testCounterErrors)
		run("Delete", testDelete)
		run("DeletePrefix", testDeletePrefix)
		run("CancelledContext", testCancelledContext)
		run("ConcurrentIncrement", testConcurrentIncrement)
		run("ConcurrentReadWrite", testConcurrentReadWrite)

		t.Run("CloseTwice", func(t *testing.T) {
			s := factory(t, NewManualClock(startTime))
			if err := s.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("second Close failed: %v", err)
			}
		})

		t.Run("WallClockExpiry", func(t *testing.T) {
			if testing.Short() {
				t.Skip("sleeps on the wall clock")
			}
			s := factory(t, storage.SystemClock)
			defer s.Close()
			testWallClockExpiry(t, s)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var ctx = context.Background()

// fixture writes the data set used by most tests
func fixture(t *testing.T, s storage.Storage) {
	t.Helper()
	mustSet(t, s, "key1", storage.NewString("value1", -1))
	mustSet(t, s, "key2", storage.NewString("value2", -1))
	mustSet(t, s, "prefix_key1", storage.NewString("prefix_value1", -1))
	mustSet(t, s, "prefix_key2", storage.NewString("prefix_value2", -1))
	mustSet(t, s, "value_num", storage.NewInteger(1, -1))
}

func mustSet(t *testing.T, s storage.Storage, key string, v storage.Value) {
	t.Helper()
	if err := s.Set(ctx, key, v); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func expectValue(t *testing.T, s storage.Storage, key string, typ storage.ValueType, data string, ttl int64) {
	t.Helper()
	v, found, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	if !found {
		t.Fatalf("Expected key %q to exist", key)
	}
	if v.Type != typ || string(v.Data) != data || v.TTL != ttl {
		t.Errorf("Get(%q) = %s, want %s(%q, ttl=%d)", key, v, typ, data, ttl)
	}
}

func expectAbsent(t *testing.T, s storage.Storage, key string) {
	t.Helper()
	v, found, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	if found || v != nil {
		t.Errorf("Expected key %q to be absent, got %s", key, v)
	}
}

func expectKeys(t *testing.T, s storage.Storage, prefix string, want ...string) {
	t.Helper()
	keys, err := s.GetAllKeys(ctx, prefix)
	if err != nil {
		t.Fatalf("GetAllKeys(%q) failed: %v", prefix, err)
	}
	if keys == nil {
		t.Errorf("GetAllKeys(%q) returned nil, want empty slice", prefix)
	}
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("GetAllKeys(%q) = %q, want %q", prefix, keys, want)
	}
}

func expectKind(t *testing.T, err error, kind storage.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	if got := storage.KindOf(err); got != kind {
		t.Errorf("Expected %s error, got %s (%v)", kind, got, err)
	}
}

func ptr(n int64) *int64 { return &n }

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	expectValue(t, s, "key1", storage.ValueTypeString, "value1", -1)
	expectValue(t, s, "value_num", storage.ValueTypeInteger, "1", -1)
	expectAbsent(t, s, "nonexistent-key")

	mustSet(t, s, "key1", storage.NewString("other", -1))
	expectValue(t, s, "key1", storage.ValueTypeString, "other", -1)

	// replacing the type is allowed
	mustSet(t, s, "key1", storage.NewInteger(7, -1))
	expectValue(t, s, "key1", storage.ValueTypeInteger, "7", -1)

	// the store must not alias caller buffers in either direction
	buf := []byte("original")
	mustSet(t, s, "buf", storage.Value{Type: storage.ValueTypeString, TTL: -1, Data: buf})
	buf[0] = 'X'
	expectValue(t, s, "buf", storage.ValueTypeString, "original", -1)

	v, _, _ := s.Get(ctx, "buf")
	v.Data[0] = 'Y'
	expectValue(t, s, "buf", storage.ValueTypeString, "original", -1)

	// arbitrary bytes and empty payloads
	mustSet(t, s, "binary", storage.Value{Type: storage.ValueTypeString, TTL: -1, Data: []byte{0x00, 0xff, 0x10}})
	expectValue(t, s, "binary", storage.ValueTypeString, "\x00\xff\x10", -1)
	mustSet(t, s, "empty", storage.NewString("", -1))
	expectValue(t, s, "empty", storage.ValueTypeString, "", -1)
}

func testGetAllKeys(t *testing.T, s storage.Storage, _ *ManualClock) {
	expectKeys(t, s, "")

	fixture(t, s)

	expectKeys(t, s, "", "key1", "key2", "prefix_key1", "prefix_key2", "value_num")
	expectKeys(t, s, "prefix_", "prefix_key1", "prefix_key2")
	expectKeys(t, s, "prefix_key1", "prefix_key1")
	expectKeys(t, s, "key", "key1", "key2")
	expectKeys(t, s, "nope")
	expectKeys(t, s, "z")
}

func testPrefixBoundaries(t *testing.T, s storage.Storage, _ *ManualClock) {
	for _, key := range []string{"a", "a\x00", "ab", "a\xff", "a\xffb", "b", "\xff", "\xff\xff"} {
		mustSet(t, s, key, storage.NewString("v", -1))
	}

	expectKeys(t, s, "a", "a", "a\x00", "ab", "a\xff", "a\xffb")
	expectKeys(t, s, "a\xff", "a\xff", "a\xffb")
	expectKeys(t, s, "\xff", "\xff", "\xff\xff")
	expectKeys(t, s, "", "a", "a\x00", "ab", "a\xff", "a\xffb", "b", "\xff", "\xff\xff")

	if err := s.DeletePrefix(ctx, "a"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	expectKeys(t, s, "", "b", "\xff", "\xff\xff")

	if err := s.DeletePrefix(ctx, "\xff"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	expectKeys(t, s, "", "b")
}

func testGetTTL(t *testing.T, s storage.Storage, clock *ManualClock) {
	fixture(t, s)

	ttl, err := s.GetTTL(ctx, "key1")
	if err != nil || ttl != -1 {
		t.Errorf("Expected ttl -1, got %d (%v)", ttl, err)
	}

	mustSet(t, s, "key1", storage.NewString("value1", 1000))
	ttl, err = s.GetTTL(ctx, "key1")
	if err != nil || ttl != 1000 {
		t.Errorf("Expected ttl 1000, got %d (%v)", ttl, err)
	}

	clock.Advance(250)
	ttl, err = s.GetTTL(ctx, "key1")
	if err != nil || ttl != 750 {
		t.Errorf("Expected ttl 750, got %d (%v)", ttl, err)
	}
	expectValue(t, s, "key1", storage.ValueTypeString, "value1", 750)

	// any negative ttl is normalized
	mustSet(t, s, "key2", storage.NewString("value2", -17))
	ttl, err = s.GetTTL(ctx, "key2")
	if err != nil || ttl != -1 {
		t.Errorf("Expected ttl -1, got %d (%v)", ttl, err)
	}

	_, err = s.GetTTL(ctx, "nonexistent-key")
	expectKind(t, err, storage.KindValueNotFound)
}

func testUpdateTTL(t *testing.T, s storage.Storage, clock *ManualClock) {
	fixture(t, s)

	if err := s.UpdateTTL(ctx, "key1", 2000); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	if ttl, _ := s.GetTTL(ctx, "key1"); ttl != 2000 {
		t.Errorf("Expected ttl 2000, got %d", ttl)
	}
	expectValue(t, s, "key1", storage.ValueTypeString, "value1", 2000)

	if err := s.UpdateTTL(ctx, "key1", -1); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	if ttl, _ := s.GetTTL(ctx, "key1"); ttl != -1 {
		t.Errorf("Expected ttl -1, got %d", ttl)
	}

	expectKind(t, s.UpdateTTL(ctx, "nonexistent-key", 10), storage.KindValueNotFound)

	// expired keys can not be revived
	mustSet(t, s, "short", storage.NewString("v", 5))
	clock.Advance(5)
	expectKind(t, s.UpdateTTL(ctx, "short", 100), storage.KindValueNotFound)
	clock.Advance(-5)
	expectAbsent(t, s, "short")

	// ttl 0 expires the key right away
	if err := s.UpdateTTL(ctx, "key2", 0); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	expectAbsent(t, s, "key2")
}

func testExpiry(t *testing.T, s storage.Storage, clock *ManualClock) {
	mustSet(t, s, "temp", storage.NewString("v", 5))
	mustSet(t, s, "perm", storage.NewString("v", -1))
	mustSet(t, s, "zero", storage.NewString("v", 0))

	expectAbsent(t, s, "zero")

	clock.Advance(4)
	expectValue(t, s, "temp", storage.ValueTypeString, "v", 1)
	expectKeys(t, s, "", "perm", "temp")

	clock.Advance(1)
	expectAbsent(t, s, "temp")
	expectKeys(t, s, "", "perm")
	_, err := s.GetTTL(ctx, "temp")
	expectKind(t, err, storage.KindValueNotFound)

	clock.Advance(1_000_000)
	expectValue(t, s, "perm", storage.ValueTypeString, "v", -1)

	// writing over an expired entry starts a fresh lifetime
	mustSet(t, s, "temp", storage.NewString("again", 3))
	expectValue(t, s, "temp", storage.ValueTypeString, "again", 3)
}

func testExpiryDeletesOnRead(t *testing.T, s storage.Storage, clock *ManualClock) {
	// each read path must physically remove what it finds expired; moving the
	// clock back afterwards shows whether the entry is still there
	reads := map[string]func(key string){
		"Get": func(key string) {
			_, _, _ = s.Get(ctx, key)
		},
		"GetTTL": func(key string) {
			_, _ = s.GetTTL(ctx, key)
		},
		"GetAllKeys": func(key string) {
			_, _ = s.GetAllKeys(ctx, key)
		},
		"UpdateTTL": func(key string) {
			_ = s.UpdateTTL(ctx, key, 100)
		},
	}

	for name, read := range reads {
		key := "expiring-" + name
		mustSet(t, s, key, storage.NewString("v", 10))

		clock.Advance(10)
		read(key)
		clock.Advance(-10)

		v, found, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("%s: Get failed: %v", name, err)
		}
		if found {
			t.Errorf("%s: expired entry survived the read: %s", name, v)
		}
	}
}

func testScanDeletesAllExpired(t *testing.T, s storage.Storage, clock *ManualClock) {
	expiring := []string{"scan/a", "scan/b", "scan/c", "scan/d"}
	for _, key := range expiring {
		mustSet(t, s, key, storage.NewString("v", 5))
	}
	mustSet(t, s, "scan/keep", storage.NewString("v", -1))
	mustSet(t, s, "scan/later", storage.NewString("v", 50))

	clock.Advance(5)
	expectKeys(t, s, "scan/", "scan/keep", "scan/later")

	// one scan removed every expired entry it passed
	clock.Advance(-5)
	for _, key := range expiring {
		expectAbsent(t, s, key)
	}
	expectKeys(t, s, "scan/", "scan/keep", "scan/later")
}

func testOpaqueKeys(t *testing.T, s storage.Storage, _ *ManualClock) {
	// keys are arbitrary byte strings, including ones an engine might treat
	// specially
	keys := []string{"", "!badger!", "!badger!x", "\x00nul", "\xff\xff"}
	for i, key := range keys {
		mustSet(t, s, key, storage.NewInteger(int64(i), -1))
	}
	for i, key := range keys {
		expectValue(t, s, key, storage.ValueTypeInteger, fmt.Sprint(i), -1)
	}

	expectKeys(t, s, "", "", "\x00nul", "!badger!", "!badger!x", "\xff\xff")
	expectKeys(t, s, "!badger!", "!badger!", "!badger!x")

	v, err := s.Increment(ctx, "", 10, nil)
	if err != nil {
		t.Fatalf("Increment on empty key failed: %v", err)
	}
	if n, _ := v.Int64(); n != 10 {
		t.Errorf("Increment on empty key = %d, want 10", n)
	}

	if err := s.DeletePrefix(ctx, "!badger!"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if err := s.Delete(ctx, ""); err != nil {
		t.Fatalf("Delete of empty key failed: %v", err)
	}
	expectKeys(t, s, "", "\x00nul", "\xff\xff")
}

func testIncrement(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	v, err := s.Increment(ctx, "value_num", 1, nil)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if string(v.Data) != "2" || v.Type != storage.ValueTypeInteger || v.TTL != -1 {
		t.Errorf("Expected Integer(2), got %s", v)
	}

	v, err = s.Increment(ctx, "value_num", 2, nil)
	if err != nil || string(v.Data) != "4" {
		t.Errorf("Expected 4, got %v (%v)", v, err)
	}
	expectValue(t, s, "value_num", storage.ValueTypeInteger, "4", -1)

	// a default is ignored when the key exists
	v, err = s.Increment(ctx, "value_num", 1, ptr(100))
	if err != nil || string(v.Data) != "5" {
		t.Errorf("Expected 5, got %v (%v)", v, err)
	}

	v, err = s.Increment(ctx, "value_num", -10, nil)
	if err != nil || string(v.Data) != "-5" {
		t.Errorf("Expected -5, got %v (%v)", v, err)
	}

	// values written by Set are counters too
	mustSet(t, s, "plain", storage.NewInteger(41, -1))
	v, err = s.Increment(ctx, "plain", 1, nil)
	if err != nil || string(v.Data) != "42" {
		t.Errorf("Expected 42, got %v (%v)", v, err)
	}
	if n, err := v.Int64(); err != nil || n != 42 {
		t.Errorf("Expected Int64 42, got %d (%v)", n, err)
	}
}

func testDecrement(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	v, err := s.Decrement(ctx, "value_num", 1, nil)
	if err != nil || string(v.Data) != "0" {
		t.Fatalf("Expected 0, got %v (%v)", v, err)
	}

	v, err = s.Decrement(ctx, "value_num", 2, nil)
	if err != nil || string(v.Data) != "-2" {
		t.Errorf("Expected -2, got %v (%v)", v, err)
	}
	expectValue(t, s, "value_num", storage.ValueTypeInteger, "-2", -1)
}

func testCounterDefaults(t *testing.T, s storage.Storage, clock *ManualClock) {
	v, err := s.Decrement(ctx, "new_value_num", 1, ptr(10))
	if err != nil || string(v.Data) != "9" || v.TTL != -1 {
		t.Fatalf("Expected 9, got %v (%v)", v, err)
	}
	v, err = s.Decrement(ctx, "new_value_num", 2, ptr(10))
	if err != nil || string(v.Data) != "7" {
		t.Errorf("Expected 7, got %v (%v)", v, err)
	}

	v, err = s.Increment(ctx, "new_inc", 5, ptr(0))
	if err != nil || string(v.Data) != "5" {
		t.Errorf("Expected 5, got %v (%v)", v, err)
	}
	expectValue(t, s, "new_inc", storage.ValueTypeInteger, "5", -1)

	// an expired counter counts as absent
	mustSet(t, s, "expiring", storage.NewInteger(100, 5))
	clock.Advance(5)
	_, err = s.Increment(ctx, "expiring", 1, nil)
	expectKind(t, err, storage.KindValueNotFound)

	mustSet(t, s, "expiring2", storage.NewInteger(100, 5))
	clock.Advance(5)
	v, err = s.Increment(ctx, "expiring2", 1, ptr(0))
	if err != nil || string(v.Data) != "1" || v.TTL != -1 {
		t.Errorf("Expected fresh 1 without ttl, got %v (%v)", v, err)
	}
}

func testCounterKeepsTTL(t *testing.T, s storage.Storage, clock *ManualClock) {
	mustSet(t, s, "counter", storage.NewInteger(1, 100))
	clock.Advance(10)

	v, err := s.Increment(ctx, "counter", 1, nil)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if string(v.Data) != "2" || v.TTL != 90 {
		t.Errorf("Expected Integer(2, ttl=90), got %s", v)
	}
	if ttl, _ := s.GetTTL(ctx, "counter"); ttl != 90 {
		t.Errorf("Expected ttl 90 after increment, got %d", ttl)
	}

	clock.Advance(30)
	v, err = s.Decrement(ctx, "counter", 5, nil)
	if err != nil || string(v.Data) != "-3" || v.TTL != 60 {
		t.Errorf("Expected Integer(-3, ttl=60), got %v (%v)", v, err)
	}

	clock.Advance(60)
	expectAbsent(t, s, "counter")
}

func testCounterErrors(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	_, err := s.Increment(ctx, "key1", 1, nil)
	expectKind(t, err, storage.KindInvalidValueType)
	_, err = s.Decrement(ctx, "key1", 1, ptr(3))
	expectKind(t, err, storage.KindInvalidValueType)
	expectValue(t, s, "key1", storage.ValueTypeString, "value1", -1)

	_, err = s.Increment(ctx, "nonexistent-key", 1, nil)
	expectKind(t, err, storage.KindValueNotFound)
	_, err = s.Decrement(ctx, "nonexistent-key", 1, nil)
	expectKind(t, err, storage.KindValueNotFound)
	expectAbsent(t, s, "nonexistent-key")

	// a numeric string stays a string
	mustSet(t, s, "numeric_string", storage.NewString("5", -1))
	_, err = s.Increment(ctx, "numeric_string", 1, nil)
	expectKind(t, err, storage.KindInvalidValueType)

	// integers that do not parse are internal errors and stay untouched
	mustSet(t, s, "corrupt", storage.Value{Type: storage.ValueTypeInteger, TTL: -1, Data: []byte("abc")})
	_, err = s.Increment(ctx, "corrupt", 1, nil)
	expectKind(t, err, storage.KindInternalError)
	expectValue(t, s, "corrupt", storage.ValueTypeInteger, "abc", -1)

	// overflow wraps around
	mustSet(t, s, "max", storage.NewInteger(1<<63-1, -1))
	v, err := s.Increment(ctx, "max", 1, nil)
	if err != nil || string(v.Data) != fmt.Sprint(int64(-1<<63)) {
		t.Errorf("Expected wrap around, got %v (%v)", v, err)
	}
}

func testDelete(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	if err := s.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	expectAbsent(t, s, "key1")
	expectValue(t, s, "key2", storage.ValueTypeString, "value2", -1)

	// deleting twice or deleting absent keys succeeds
	if err := s.Delete(ctx, "key1"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "nonexistent-key"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
	expectKeys(t, s, "", "key2", "prefix_key1", "prefix_key2", "value_num")
}

func testDeletePrefix(t *testing.T, s storage.Storage, clock *ManualClock) {
	fixture(t, s)

	if err := s.DeletePrefix(ctx, "prefix_"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	expectKeys(t, s, "prefix_")
	expectKeys(t, s, "", "key1", "key2", "value_num")
	expectAbsent(t, s, "prefix_key1")

	if err := s.DeletePrefix(ctx, "prefix_"); err != nil {
		t.Errorf("second DeletePrefix failed: %v", err)
	}

	// expired entries are removed as well
	mustSet(t, s, "key_expired", storage.NewString("v", 1))
	clock.Advance(1)
	if err := s.DeletePrefix(ctx, "key"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	clock.Advance(-1)
	expectKeys(t, s, "", "value_num")

	if err := s.DeletePrefix(ctx, ""); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	expectKeys(t, s, "")
}

func testCancelledContext(t *testing.T, s storage.Storage, _ *ManualClock) {
	fixture(t, s)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Get(cancelled, "key1")
	expectKind(t, err, storage.KindInternalError)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected the context error to be wrapped, got %v", err)
	}

	expectKind(t, s.Set(cancelled, "key1", storage.NewString("changed", -1)), storage.KindInternalError)
	_, err = s.Increment(cancelled, "value_num", 1, nil)
	expectKind(t, err, storage.KindInternalError)
	expectKind(t, s.DeletePrefix(cancelled, ""), storage.KindInternalError)

	expectValue(t, s, "key1", storage.ValueTypeString, "value1", -1)
	expectValue(t, s, "value_num", storage.ValueTypeInteger, "1", -1)
}

func testConcurrentIncrement(t *testing.T, s storage.Storage, _ *ManualClock) {
	const (
		workers = 16
		rounds  = 50
	)

	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				var err error
				if i%2 == 0 {
					_, err = s.Increment(ctx, "counter", 2, ptr(0))
				} else {
					_, err = s.Decrement(ctx, "counter", 1, ptr(0))
				}
				if err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("counter operation failed: %v", err)
	}

	want := fmt.Sprint(workers / 2 * rounds * (2 - 1))
	expectValue(t, s, "counter", storage.ValueTypeInteger, want, -1)
}

func testConcurrentReadWrite(t *testing.T, s storage.Storage, _ *ManualClock) {
	const workers = 8

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("worker%d_key%d", i, j)
				if err := s.Set(ctx, key, storage.NewString(key, -1)); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				v, found, err := s.Get(ctx, key)
				if err != nil || !found || string(v.Data) != key {
					t.Errorf("Get(%q) = %v, %v, %v", key, v, found, err)
					return
				}
				if j%10 == 0 {
					if _, err := s.GetAllKeys(ctx, fmt.Sprintf("worker%d_", i)); err != nil {
						t.Errorf("GetAllKeys failed: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		keys, err := s.GetAllKeys(ctx, fmt.Sprintf("worker%d_", i))
		if err != nil || len(keys) != 100 {
			t.Errorf("worker %d: expected 100 keys, got %d (%v)", i, len(keys), err)
		}
	}
}

func testWallClockExpiry(t *testing.T, s storage.Storage) {
	mustSet(t, s, "short", storage.NewString("v", 1))
	mustSet(t, s, "long", storage.NewString("v", 60))

	time.Sleep(2100 * time.Millisecond)

	expectAbsent(t, s, "short")
	v, found, err := s.Get(ctx, "long")
	if err != nil || !found {
		t.Fatalf("Expected long lived key to exist: %v", err)
	}
	if v.TTL < 57 || v.TTL > 59 {
		t.Errorf("Expected ttl around 58, got %d", v.TTL)
	}
}
