package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
)

// BenchFactory creates a fresh backend for a benchmark.
type BenchFactory func(b *testing.B) storage.Storage

// RunStorageBenchmarks runs the standard benchmarks against a backend.
func RunStorageBenchmarks(b *testing.B, name string, factory BenchFactory) {
	run := func(name string, fn func(b *testing.B, s storage.Storage)) {
		b.Run(name, func(b *testing.B) {
			s := factory(b)
			defer s.Close()
			fn(b, s)
		})
	}

	run("Set", benchmarkSet)
	run("SetWithTTL", benchmarkSetWithTTL)
	run("Get", benchmarkGet)
	run("Increment", benchmarkIncrement)
	run("GetAllKeys", benchmarkGetAllKeys)
	run("MixedUsage", benchmarkMixedUsage)
}

func benchmarkSet(b *testing.B, s storage.Storage) {
	value := storage.NewString("benchmark-value", -1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set(ctx, fmt.Sprintf("key-%d", i), value); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkSetWithTTL(b *testing.B, s storage.Storage) {
	value := storage.NewString("benchmark-value", 3600)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set(ctx, fmt.Sprintf("key-%d", i), value); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkGet(b *testing.B, s storage.Storage) {
	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		_ = s.Set(ctx, fmt.Sprintf("key-%d", i), storage.NewString("benchmark-value", -1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Get(ctx, fmt.Sprintf("key-%d", i%numKeys)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkIncrement(b *testing.B, s storage.Storage) {
	def := int64(0)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.Increment(ctx, "counter", 1, &def); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func benchmarkGetAllKeys(b *testing.B, s storage.Storage) {
	for i := 0; i < 100; i++ {
		_ = s.Set(ctx, fmt.Sprintf("prefix_%03d", i), storage.NewString("v", -1))
		_ = s.Set(ctx, fmt.Sprintf("other_%03d", i), storage.NewString("v", -1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetAllKeys(ctx, "prefix_"); err != nil {
			b.Fatal(err)
		}
	}
}

// benchmarkMixedUsage mirrors the set/get/delete loop of the load generator
func benchmarkMixedUsage(b *testing.B, s storage.Storage) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", r.Intn(10_000))
			switch r.Intn(3) {
			case 0:
				_ = s.Set(ctx, key, storage.NewString("value", 60))
			case 1:
				_, _, _ = s.Get(ctx, key)
			default:
				_ = s.Delete(ctx, key)
			}
		}
	})
}
