// Package apiclient talks to the remote donations REST API. Every failure is
// classified into the small taxonomy in errors.go before it reaches callers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/doacoes/internal/auth"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// Client calls the remote API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *auth.Session
}

// New constructs a client. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithSession returns a copy of the client that authenticates with s.
func (c *Client) WithSession(s *auth.Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Session returns the credential the client is bound to, possibly nil.
func (c *Client) Session() *auth.Session {
	return c.session
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request and decodes a successful JSON body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: ErrValidation, Message: "invalid request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := classifyTransport(err)
		slog.Debug("api request failed", "op", op, "method", method, "path", path, "kind", kind, "error", err)
		return &Error{Op: op, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		kind := classifyStatus(resp.StatusCode)
		slog.Debug("api request rejected", "op", op, "method", method, "path", path, "status", resp.StatusCode, "error", msg)
		return &Error{Op: op, Kind: kind, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Op: op, Kind: ErrTimeout, Status: resp.StatusCode, Err: err}
		}
		return &Error{Op: op, Kind: ErrServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// Health calls GET /health and returns the status payload.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, "health check", http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func bookPath(id int64) string {
	return fmt.Sprintf("/livros/%d", id)
}

func pledgePath(id int64) string {
	return fmt.Sprintf("/doacoes/%d", id)
}

func queryPath(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}
