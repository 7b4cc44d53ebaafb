package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/eventops/pkg/logger"
)

// HTTPClient wraps http.Client with the acting user header.
type HTTPClient struct {
	client *http.Client
	userID string
}

func newHTTPClient(timeout time.Duration, userID string) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}, userID: userID}
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	if c.userID != "" {
		req.Header.Set(headerUserID, c.userID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Post performs a POST request with a JSON body. key, when set, is sent as
// the Idempotency-Key header.
func (c *HTTPClient) Post(ctx context.Context, url string, body any, key string) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}
	return c.do(req)
}

// getJSON decodes a 200 response from url into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	status, body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return nil
}
