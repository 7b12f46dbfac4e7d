// Package client implements a typed client for the tKV HTTP API.
//
// Requests are spread round robin over the configured endpoints and retried
// on transport errors. Error responses are converted back into
// *storage.Error values so callers can branch with errors.Is.
//
// Usage Example:
//
//	c, err := client.NewClient(common.ClientConfig{
//		Endpoints:     []string{"http://[::1]:4123"},
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	})
//	if err != nil {
//		panic(err)
//	}
//	defer c.Close()
//
//	_ = c.Set(ctx, "visits", common.NewInt(0), -1)
//	n, _ := c.Increment(ctx, "visits", 1, nil)
package client
