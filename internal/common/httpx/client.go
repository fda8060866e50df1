package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
)

// Client speaks JSON to one backend. Transport failures, 5xx and unreadable bodies come back
// as *domain.NetworkError; a 4xx without a JSON body comes back as *domain.RejectedError.
type Client struct {
	base *url.URL
	hc   *http.Client
	lg   *logger.Logger
}

func New(baseURL string, timeout time.Duration, lg *logger.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &Client{base: u, hc: &http.Client{Timeout: timeout}, lg: lg}, nil
}

// Do sends in as the JSON body (when non-nil) and decodes the JSON response into out.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	lg := c.lg.WithRequest(reqID)
	started := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		lg.Error("http_request_failed", err, map[string]any{"op": op, "method": method, "path": path})
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	lg.Debug("http_request_done", map[string]any{
		"op": op, "method": method, "path": path,
		"status": resp.StatusCode, "duration_ms": time.Since(started).Milliseconds(),
	})

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, serverMessage(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &domain.RejectedError{Op: op, Message: http.StatusText(resp.StatusCode)}
		}
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func serverMessage(raw []byte) string {
	var r domain.StatusResponse
	if json.Unmarshal(raw, &r) == nil && r.Error != "" {
		return r.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
