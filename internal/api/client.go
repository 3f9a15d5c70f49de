// Package api implements the HTTP client for the storefront backend:
// catalog listing, cart fetch and mutation, authentication, and order
// placement. Responses are normalized through the cart package before they
// reach callers; errors are classified per errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopfront/internal/logging"
	"shopfront/internal/session"
)

// Config tunes the transport. Retries apply to idempotent GETs only;
// mutations are issued exactly once.
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultConfig returns sensible client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 3 * time.Second,
	}
}

// Client talks to the storefront backend. All methods are safe for use from
// a single event loop; the client holds no per-request state.
type Client struct {
	baseURL  string
	http     *http.Client
	identity session.Identity
	cfg      Config
}

// New creates a client for the backend at baseURL. The identity supplies
// the session and bearer headers for cart-scoped requests.
func New(baseURL string, identity session.Identity, cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		identity: identity,
		cfg:      cfg,
	}
}

// newRequest builds a request with the common headers. Identity headers are
// applied per call site, not here: catalog and auth endpoints carry a
// different header set than cart endpoints.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// bearer sets the Authorization header when a token is present, regardless
// of session identity. Used by profile and order endpoints.
func (c *Client) bearer(h http.Header) {
	if c.identity.Token == nil {
		return
	}
	if tok, ok := c.identity.Token(); ok && tok != "" {
		h.Set(session.HeaderAuthorization, "Bearer "+tok)
	}
}

// do executes the request and reads the full body. GETs are retried with
// bounded exponential backoff on transport errors and 5xx responses; other
// methods are sent exactly once. 4xx responses are returned to the caller,
// not retried.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	retries := 0
	if req.Method == http.MethodGet {
		retries = c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryWaitMin * time.Duration(1<<uint(attempt-1))
			if wait > c.cfg.RetryWaitMax {
				wait = c.cfg.RetryWaitMax
			}
			select {
			case <-time.After(wait):
			case <-req.Context().Done():
				return 0, nil, &ConnectivityError{Err: req.Context().Err()}
			}
		}

		logging.APIDebug("%s %s (attempt %d, request %s)",
			req.Method, req.URL.Path, attempt+1, req.Header.Get("X-Request-ID"))

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < retries {
				continue
			}
			logging.API("%s %s failed: %v", req.Method, req.URL.Path, err)
			return 0, nil, &ConnectivityError{Err: err}
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < retries {
				continue
			}
			return 0, nil, &ConnectivityError{Err: readErr}
		}

		if resp.StatusCode >= 500 && attempt < retries {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		logging.APIDebug("%s %s -> %d (%d bytes)", req.Method, req.URL.Path, resp.StatusCode, len(body))
		return resp.StatusCode, body, nil
	}
	return 0, nil, &ConnectivityError{Err: lastErr}
}

// classify converts a non-2xx status into the error taxonomy.
func classify(status int, body []byte) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status >= 400 && status <= 499:
		return &APIError{Status: status, Message: extractMessage(body)}
	default:
		return &ConnectivityError{Status: status}
	}
}
