package bench

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ValentinKolb/tKV/rpc/client"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var (
	Logger = logger.GetLogger("cmd")
)

// operations measured by Run, in report order
var operations = []string{"set", "get", "delete", "total"}

// Options configures a load test
type Options struct {
	Threads   int
	Requests  int
	KeyPrefix string
}

// Report holds one latency timer per operation and the number of failed
// requests
type Report struct {
	Duration time.Duration
	Errors   int64

	registry metrics.Registry
}

// Timer returns the latency timer of op (set, get, delete or total)
func (r *Report) Timer(op string) metrics.Timer {
	return metrics.GetOrRegisterTimer(op, r.registry)
}

// Run starts opts.Threads workers. Each performs opts.Requests iterations of
// set, get and delete on its own key. Failed requests are counted, they do
// not stop the test. Run returns early with ctx.Err() if ctx is cancelled.
func Run(ctx context.Context, c *client.Client, opts Options) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	report := &Report{registry: metrics.NewRegistry()}
	for _, op := range operations {
		report.Timer(op)
	}
	errCount := metrics.GetOrRegisterCounter("errors", report.registry)

	measure := func(op string, fn func() error) {
		start := time.Now()
		err := fn()
		report.Timer(op).UpdateSince(start)
		if err != nil {
			errCount.Inc(1)
			Logger.Debugf("(%s) - request failed: %v", op, err)
		}
	}

	start := time.Now()
	var wg sync.WaitGroup
	for t := 0; t < opts.Threads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < opts.Requests; i++ {
				if ctx.Err() != nil {
					return
				}
				key := fmt.Sprintf("%s-%d-%d", opts.KeyPrefix, thread, i)
				value := common.NewStr(fmt.Sprintf("value-%d", i))

				iteration := time.Now()
				measure("set", func() error { return c.Set(ctx, key, value, -1) })
				measure("get", func() error {
					_, _, found, err := c.Get(ctx, key)
					if err == nil && !found {
						err = fmt.Errorf("key %s not found after set", key)
					}
					return err
				})
				measure("delete", func() error { return c.Delete(ctx, key) })
				report.Timer("total").UpdateSince(iteration)
			}
		}(t)
	}
	wg.Wait()

	report.Duration = time.Since(start)
	report.Errors = errCount.Count()
	return report, ctx.Err()
}

// Print writes a table with count, mean and percentiles per operation
func (r *Report) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%-10s%10s%14s%14s%14s%14s%14s\n", "op", "count", "mean", "p50", "p95", "p99", "ops/sec")
	for _, op := range operations {
		s := r.Timer(op).Snapshot()
		if s.Count() == 0 {
			_, _ = fmt.Fprintf(w, "%-10sskipped\n", op)
			continue
		}
		ps := s.Percentiles([]float64{0.5, 0.95, 0.99})
		opsPerSec := float64(s.Count()) / r.Duration.Seconds()
		_, _ = fmt.Fprintf(w, "%-10s%10d%14s%14s%14s%14s%14.0f\n",
			op,
			s.Count(),
			time.Duration(s.Mean()).Round(time.Microsecond),
			time.Duration(ps[0]).Round(time.Microsecond),
			time.Duration(ps[1]).Round(time.Microsecond),
			time.Duration(ps[2]).Round(time.Microsecond),
			opsPerSec,
		)
	}
	_, _ = fmt.Fprintf(w, "\ntook %s, %d failed requests\n", r.Duration.Round(time.Millisecond), r.Errors)
}
