// Package testing provides the conformance suite and benchmarks every
// storage.Storage backend runs.
//
// The suite drives the backend through a ManualClock so lifetime behaviour is
// tested without sleeping. Only one test, skipped in -short mode, waits on the
// wall clock.
//
// Example usage:
//
//	func Test(t *testing.T) {
//		storagetesting.RunStorageTests(t, "MyStorage", func(t *testing.T, clock storage.Clock) storage.Storage {
//			return NewMyStorage(&storage.Options{Clock: clock, Dir: t.TempDir()})
//		})
//	}
//
//	func Benchmark(b *testing.B) {
//		storagetesting.RunStorageBenchmarks(b, "MyStorage", func(b *testing.B) storage.Storage {
//			return NewMyStorage(nil)
//		})
//	}
package testing
