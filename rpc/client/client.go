package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ValentinKolb/tKV/rpc/common"
)

// --------------------------------------------------------------------------
// Key operations
// --------------------------------------------------------------------------

// Get returns the value of key and its remaining ttl. found is false if the
// key is absent or expired.
func (c *Client) Get(ctx context.Context, key string) (value common.IntOrString, ttl int64, found bool, err error) {
	var resp common.GetResponse
	if err = c.invoke(ctx, http.MethodGet, keyPath(key), nil, nil, &resp); err != nil {
		return common.IntOrString{}, 0, false, err
	}
	if resp.Value == nil {
		return common.IntOrString{}, 0, false, nil
	}
	ttl = -1
	if resp.TTL != nil {
		ttl = *resp.TTL
	}
	return *resp.Value, ttl, true, nil
}

// Keys lists every key starting with prefix.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	var resp common.GetAllKeysResponse
	err := c.invoke(ctx, http.MethodGet, "/keys", url.Values{"prefix": {prefix}}, nil, &resp)
	return resp.Keys, err
}

// Set stores value under key. A negative ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value common.IntOrString, ttl int64) error {
	return c.invoke(ctx, http.MethodPost, "/keys", nil, common.SetRequest{Key: key, Value: value, TTL: &ttl}, nil)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.invoke(ctx, http.MethodDelete, keyPath(key), nil, nil, nil)
}

// DeletePrefix removes every key starting with prefix.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	return c.invoke(ctx, http.MethodDelete, "/keys", nil, common.DeleteKeysRequest{Prefix: prefix}, nil)
}

// Increment adds delta to the counter at key and returns the new value.
func (c *Client) Increment(ctx context.Context, key string, delta int64, def *int64) (int64, error) {
	var resp common.CounterResponse
	err := c.invoke(ctx, http.MethodPost, keyPath(key, "/inc"), nil, common.CounterRequest{Value: delta, Default: def}, &resp)
	return resp.Value, err
}

// Decrement subtracts delta from the counter at key and returns the new value.
func (c *Client) Decrement(ctx context.Context, key string, delta int64, def *int64) (int64, error) {
	var resp common.CounterResponse
	err := c.invoke(ctx, http.MethodPost, keyPath(key, "/dec"), nil, common.CounterRequest{Value: delta, Default: def}, &resp)
	return resp.Value, err
}

// GetTTL returns the remaining lifetime of key. The server reports absent
// keys as -1.
func (c *Client) GetTTL(ctx context.Context, key string) (int64, error) {
	var resp common.GetTTLResponse
	err := c.invoke(ctx, http.MethodGet, keyPath(key, "/ttl"), nil, nil, &resp)
	return resp.TTL, err
}

// UpdateTTL replaces the lifetime of key.
func (c *Client) UpdateTTL(ctx context.Context, key string, ttl int64) error {
	return c.invoke(ctx, http.MethodPost, keyPath(key, "/ttl"), nil, common.SetTTLRequest{TTL: ttl}, nil)
}

// Info returns version and backend of the server.
func (c *Client) Info(ctx context.Context) (common.InfoResponse, error) {
	var resp common.InfoResponse
	err := c.invoke(ctx, http.MethodGet, "/info", nil, nil, &resp)
	return resp, err
}
