package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a JSON client for the wealth REST backend with retry on 429.
// Authentication is not its concern: pass a transport that decorates requests
// (see session.Transport) to reach protected routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a backend client. A nil transport means http.DefaultTransport.
func NewClient(baseURL string, transport http.RoundTripper, timeout time.Duration, maxRetries int, baseDelay time.Duration) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// BaseURL returns the backend base URL with a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Do sends r and decodes a successful JSON response into dest (when non-nil).
// HTTP 429 is retried with exponential backoff; any other non-2xx status is
// returned as *Error.
func (c *Client) Do(ctx context.Context, r Request, dest any) error {
	endpoint := c.baseURL + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	var payload []byte
	if r.Body != nil {
		var err error
		payload, err = json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", r.Method, r.Path, err)
		}
	}
	requestID := uuid.NewString()

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, body)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		for k, vs := range r.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing %s %s: %w", r.Method, r.Path, err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("reading response of %s %s: %w", r.Method, r.Path, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if dest == nil || len(bytes.TrimSpace(respBody)) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, dest); err != nil {
				return fmt.Errorf("parsing JSON from %s %s: %w", r.Method, r.Path, err)
			}
			return nil
		}

		apiErr := newError(r.Method, r.Path, resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("attempt %d/%d: %w", attempt+1, c.maxRetries+1, apiErr)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				slog.Debug("backend rate limited, backing off", "path", r.Path, "delay", delay, "request_id", requestID)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return lastErr
		}
		return apiErr
	}

	return lastErr
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: orEmpty(body)}, dest)
}

func (c *Client) patch(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: orEmpty(body)}, dest)
}

func (c *Client) put(ctx context.Context, path string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: orEmpty(body)}, dest)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func orEmpty(body any) any {
	if body == nil {
		return struct{}{}
	}
	return body
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
