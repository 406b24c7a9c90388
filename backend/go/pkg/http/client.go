package http

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/circuitbreaker"
	"fmt"
	"net/http"
	"time"
)

// Client is a custom HTTP client that wraps the standard http.Client
// and provides built-in support for circuit breaking.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a new Client with a circuit breaker configured.
func NewClient(cfg config.CircuitBreakerConfig) (*Client, error) {
	hc := &http.Client{Timeout: 30 * time.Second}
	if !cfg.Enabled {
		return &Client{httpClient: hc}, nil
	}

	breaker, err := NewBreaker("http-client", cfg)
	if err != nil {
		return nil, err
	}
	return &Client{httpClient: hc, breaker: breaker}, nil
}

// NewClientWithBreaker wraps breaker around a client with the given timeout. A nil
// breaker disables circuit breaking.
func NewClientWithBreaker(timeout time.Duration, breaker *circuitbreaker.Breaker) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}, breaker: breaker}
}

// Do executes an HTTP request with circuit breaker protection.
// It considers status codes >= 500 as failures, but still returns the response
// so callers can read the error body.
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
