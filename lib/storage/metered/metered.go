// Package metered wraps a storage.Storage and records per operation call
// counts, error counts and latency histograms in a VictoriaMetrics set.
package metered

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/VictoriaMetrics/metrics"
)

// Storage is a storage.Storage that records metrics for every call.
type Storage struct {
	next    storage.Storage
	backend string
	set     *metrics.Set
}

// Wrap decorates next. backend is used as label value on every metric.
func Wrap(next storage.Storage, backend storage.Implementation) *Storage {
	return &Storage{
		next:    next,
		backend: backend.String(),
		set:     metrics.NewSet(),
	}
}

// WritePrometheus writes all metrics of this storage in Prometheus text
// format.
func (s *Storage) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}

// Unwrap returns the decorated storage.
func (s *Storage) Unwrap() storage.Storage {
	return s.next
}

// observe records the outcome of one call
func (s *Storage) observe(op string, start time.Time, err error) {
	s.set.GetOrCreateCounter(fmt.Sprintf(`tkv_storage_requests_total{backend=%q,op=%q}`, s.backend, op)).Inc()
	s.set.GetOrCreateHistogram(fmt.Sprintf(`tkv_storage_request_duration_seconds{backend=%q,op=%q}`, s.backend, op)).UpdateDuration(start)
	if err != nil {
		kind := storage.KindOf(err).String()
		s.set.GetOrCreateCounter(fmt.Sprintf(`tkv_storage_errors_total{backend=%q,op=%q,kind=%q}`, s.backend, op, kind)).Inc()
	}
}

// Count returns the number of recorded calls of op.
func (s *Storage) Count(op string) uint64 {
	return s.set.GetOrCreateCounter(fmt.Sprintf(`tkv_storage_requests_total{backend=%q,op=%q}`, s.backend, op)).Get()
}

// --------------------------------------------------------------------------
// storage.Storage
// --------------------------------------------------------------------------

func (s *Storage) Get(ctx context.Context, key string) (v *storage.Value, found bool, err error) {
	defer func(start time.Time) { s.observe("get", start, err) }(time.Now())
	v, found, err = s.next.Get(ctx, key)
	if err == nil && !found {
		s.set.GetOrCreateCounter(fmt.Sprintf(`tkv_storage_misses_total{backend=%q}`, s.backend)).Inc()
	}
	return v, found, err
}

func (s *Storage) GetAllKeys(ctx context.Context, prefix string) (keys []string, err error) {
	defer func(start time.Time) { s.observe("get_all_keys", start, err) }(time.Now())
	return s.next.GetAllKeys(ctx, prefix)
}

func (s *Storage) GetTTL(ctx context.Context, key string) (ttl int64, err error) {
	defer func(start time.Time) { s.observe("get_ttl", start, err) }(time.Now())
	return s.next.GetTTL(ctx, key)
}

func (s *Storage) UpdateTTL(ctx context.Context, key string, ttl int64) (err error) {
	defer func(start time.Time) { s.observe("update_ttl", start, err) }(time.Now())
	return s.next.UpdateTTL(ctx, key, ttl)
}

func (s *Storage) Set(ctx context.Context, key string, value storage.Value) (err error) {
	defer func(start time.Time) { s.observe("set", start, err) }(time.Now())
	return s.next.Set(ctx, key, value)
}

func (s *Storage) Increment(ctx context.Context, key string, delta int64, def *int64) (v *storage.Value, err error) {
	defer func(start time.Time) { s.observe("increment", start, err) }(time.Now())
	return s.next.Increment(ctx, key, delta, def)
}

func (s *Storage) Decrement(ctx context.Context, key string, delta int64, def *int64) (v *storage.Value, err error) {
	defer func(start time.Time) { s.observe("decrement", start, err) }(time.Now())
	return s.next.Decrement(ctx, key, delta, def)
}

func (s *Storage) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, key)
}

func (s *Storage) DeletePrefix(ctx context.Context, prefix string) (err error) {
	defer func(start time.Time) { s.observe("delete_prefix", start, err) }(time.Now())
	return s.next.DeletePrefix(ctx, prefix)
}

func (s *Storage) Close() error {
	return s.next.Close()
}
