package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/lib/storage/engines/memory"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *Client {
	s := server.NewServer(common.ServerConfig{Backend: "memory"}, memory.NewMemoryStorage(nil), server.BuildInfo{Version: "test"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})

	c, err := NewClient(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupClient(t)

	require.NoError(t, c.Set(ctx, "key1", common.NewStr("value1"), -1))
	require.NoError(t, c.Set(ctx, "prefix/key", common.NewStr("v"), 1000))
	require.NoError(t, c.Set(ctx, "value_num", common.NewInt(1), -1))

	v, ttl, found, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", v.Str)
	assert.Equal(t, int64(-1), ttl)

	v, _, found, err = c.Get(ctx, "prefix/key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v.Str)

	_, _, found, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	keys, err := c.Keys(ctx, "prefix/")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefix/key"}, keys)

	n, err := c.Increment(ctx, "value_num", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	def := int64(10)
	n, err = c.Decrement(ctx, "fresh", 1, &def)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	ttl, err = c.GetTTL(ctx, "prefix/key")
	require.NoError(t, err)
	assert.InDelta(t, 1000, ttl, 1)

	require.NoError(t, c.UpdateTTL(ctx, "prefix/key", -1))
	ttl, err = c.GetTTL(ctx, "prefix/key")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), ttl)

	require.NoError(t, c.Delete(ctx, "key1"))
	require.NoError(t, c.DeletePrefix(ctx, "prefix/"))
	keys, err = c.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "value_num"}, keys)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", info.Version)
}

func TestClientErrorKinds(t *testing.T) {
	ctx := context.Background()
	c := setupClient(t)

	_, err := c.Increment(ctx, "missing", 1, nil)
	assert.True(t, errors.Is(err, storage.ErrValueNotFound), "got %v", err)

	require.NoError(t, c.Set(ctx, "text", common.NewStr("abc"), -1))
	_, err = c.Increment(ctx, "text", 1, nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidValueType), "got %v", err)

	err = c.UpdateTTL(ctx, "missing", 10)
	assert.True(t, errors.Is(err, storage.ErrValueNotFound), "got %v", err)
}

func TestClientConfig(t *testing.T) {
	_, err := NewClient(common.ClientConfig{})
	assert.Error(t, err)

	c, err := NewClient(common.ClientConfig{Endpoints: []string{"[::1]:4123"}})
	require.NoError(t, err)
	assert.Equal(t, "http", c.serverURLs[0].Scheme)
	assert.Equal(t, 1, c.retryCount)
}
