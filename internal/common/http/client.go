// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a thin JSON client over resty shared by outbound integrations.
type Client struct {
	rc *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(timeout)
	rc.SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// GetJSON issues a GET with query params and decodes a 2xx body into out.
// Non-2xx responses are returned as errors.
func (c *Client) GetJSON(ctx context.Context, path string, params map[string]string, out interface{}) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}

// Resty exposes the underlying client, e.g. for transport overrides in tests.
func (c *Client) Resty() *resty.Client {
	return c.rc
}
