package cmd

import (
	"Recall_1.0/backend/go/pkg/circuitbreaker"
	httpx "Recall_1.0/backend/go/pkg/http"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient calls the memory service REST API.
type apiClient struct {
	base  string
	token string
	http  *httpx.Client
}

func newClient(base, token string) *apiClient {
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:             "recall-cli",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          10 * time.Second,
	})
	return &apiClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  httpx.NewClientWithBreaker(30*time.Second, breaker),
	}
}

// call sends body as JSON and decodes the response into out. A non-2xx status
// becomes an error carrying the server's "error" and "details" fields.
func (c *apiClient) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		if e.Details != "" {
			return fmt.Errorf("%s (%s)", e.Error, e.Details)
		}
		return fmt.Errorf("%s", e.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
