package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// Client talks to one or more tKV servers
type Client struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// NewClient creates a client for the endpoints in config
func NewClient(config common.ClientConfig) (*Client, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		server = strings.TrimSpace(server)
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(strings.TrimRight(server, "/"))
		if err != nil {
			return nil, err
		}
		parsedURLs[i] = parsedURL
	}

	retries := config.RetryCount
	if retries < 1 {
		retries = 1
	}

	return &Client{
		serverURLs: parsedURLs,
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSecond) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryCount: retries,
	}, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// invoke sends one request and decodes the success body into resp. Error
// responses are turned into *storage.Error values.
func (c *Client) invoke(ctx context.Context, method, path string, query url.Values, req, resp any) error {
	var body []byte
	if req != nil {
		var err error
		if body, err = json.Marshal(req); err != nil {
			return err
		}
	}

	// round robin over the endpoints
	idx := c.counter.Add(1) % uint32(len(c.serverURLs))
	target := c.serverURLs[idx].String() + path
	if query != nil {
		target += "?" + query.Encode()
	}

	var httpResponse *http.Response
	var err error
	for i := 0; i < c.retryCount; i++ {
		var httpRequest *http.Request
		httpRequest, err = http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if body != nil {
			httpRequest.Header.Set("Content-Type", "application/json")
		}
		httpResponse, err = c.client.Do(httpRequest)
		if err == nil || ctx.Err() != nil {
			break
		}
		Logger.Debugf("request %s %s failed (attempt %d): %v", method, path, i+1, err)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return err
	}

	if httpResponse.StatusCode != http.StatusOK {
		var errResp common.ErrorResponse
		if json.Unmarshal(raw, &errResp) != nil || errResp.Error == "" {
			return fmt.Errorf("http error: %s", httpResponse.Status)
		}
		kind := storage.ParseErrorKind(errResp.Kind)
		return &storage.Error{Kind: kind, Msg: strings.TrimPrefix(errResp.Error, kind.String()+": ")}
	}

	if resp == nil {
		return nil
	}
	return json.Unmarshal(raw, resp)
}

// keyPath builds the escaped path of a key resource. Slashes inside the key
// are escaped so the key stays a single path segment.
func keyPath(key string, suffix ...string) string {
	return "/keys/" + url.PathEscape(key) + strings.Join(suffix, "")
}
