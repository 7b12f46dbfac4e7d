package pebbledb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
	storagetesting "github.com/ValentinKolb/tKV/lib/storage/testing"
)

var ctx = context.Background()

func Test(t *testing.T) {
	storagetesting.RunStorageTests(t, "PebbleStorage", func(t *testing.T, clock storage.Clock) storage.Storage {
		s, err := NewPebbleStorage(&storage.Options{Dir: filepath.Join(t.TempDir(), "db"), Clock: clock})
		if err != nil {
			t.Fatalf("cannot open pebble storage: %v", err)
		}
		return s
	})
}

func TestDirectoryLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale-file")
	if err := os.WriteFile(stale, []byte("left over"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewPebbleStorage(&storage.Options{Dir: dir})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("expected the directory to be wiped on open")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected the directory to be removed on close")
	}
}

func TestOpenFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewPebbleStorage(&storage.Options{Dir: filepath.Join(file, "db")})
	if !errors.Is(err, storage.ErrInitialFailed) {
		t.Errorf("expected InitialFailed, got %v", err)
	}
}

func TestCorruptRecord(t *testing.T) {
	s, err := NewPebbleStorage(&storage.Options{Dir: filepath.Join(t.TempDir(), "db")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// bypass the encoder
	impl := s.(*pebbleImpl)
	if err := impl.db.Set([]byte("broken"), []byte{0x07, 0x01}, nil); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Get(ctx, "broken"); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from Get, got %v", err)
	}
	if _, err := s.GetAllKeys(ctx, "b"); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from GetAllKeys, got %v", err)
	}
	if _, err := s.Increment(ctx, "broken", 1, nil); !errors.Is(err, storage.ErrInternal) {
		t.Errorf("expected InternalError from Increment, got %v", err)
	}
	if err := s.Delete(ctx, "broken"); err != nil {
		t.Errorf("corrupt entries must still be deletable: %v", err)
	}
}

func Benchmark(b *testing.B) {
	storagetesting.RunStorageBenchmarks(b, "PebbleStorage", func(b *testing.B) storage.Storage {
		s, err := NewPebbleStorage(&storage.Options{Dir: filepath.Join(b.TempDir(), "db")})
		if err != nil {
			b.Fatal(err)
		}
		return s
	})
}
