package bench

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage/engines/memory"
	"github.com/ValentinKolb/tKV/rpc/client"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	s := server.NewServer(common.ServerConfig{Backend: "memory"}, memory.NewMemoryStorage(nil), server.BuildInfo{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Close()

	c, err := client.NewClient(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 1})
	require.NoError(t, err)
	defer c.Close()

	report, err := Run(context.Background(), c, Options{Threads: 4, Requests: 10, KeyPrefix: "__test"})
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.Errors)
	for _, op := range operations {
		assert.Equal(t, int64(40), report.Timer(op).Count(), op)
	}

	// every iteration removes its key again
	keys, err := c.Keys(context.Background(), "__test")
	require.NoError(t, err)
	assert.Empty(t, keys)

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()
	for _, op := range operations {
		assert.Contains(t, out, op)
	}
	assert.True(t, strings.Contains(out, "0 failed requests"))
}

func TestRunCancelled(t *testing.T) {
	c, err := client.NewClient(common.ClientConfig{Endpoints: []string{"http://127.0.0.1:1"}, TimeoutSecond: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, c, Options{Threads: 2, Requests: 5, KeyPrefix: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), report.Timer("set").Count())
}
