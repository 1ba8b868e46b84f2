package http

import (
	"DocQA/backend/go/pkg/circuitbreaker"
	"fmt"
	"net/http"
	"time"
)

// Client wraps http.Client with an optional circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a Client. breaker may be nil.
func NewClient(timeout time.Duration, breaker *circuitbreaker.Breaker) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Do executes req. With a breaker, transport errors and 5xx responses count
// as failures; the response of a 5xx is still returned to the caller.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return nil
	})
	if resp != nil && resp.StatusCode >= http.StatusInternalServerError {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
