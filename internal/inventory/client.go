// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// client.go - Token authenticated client for the NetBox REST API.
//
// Every call returns a Result rather than an error: non-2xx responses become
// http_error results and anything that stops the call from completing
// (DNS, refused connection, certificate, timeout) becomes transport_error.
//
// Usage Example:
//   client, err := inventory.NewClient(inventory.Options{
//       BaseURL: "https://netbox.example.com/",
//       Token:   token,
//       Timeout: 30 * time.Second,
//   })
//   result := client.Read(ctx, "/api/dcim/devices/", url.Values{"site": {"hq"}})
//   if !result.OK() {
//       ...
//   }

package inventory

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"

	"github.com/gebl/netbox-assistant/internal/logging"
)

const (
	// DefaultTimeout bounds each request when Options.Timeout is unset.
	DefaultTimeout = 30 * time.Second
	maxErrorBody   = 2048
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// InsecureSkipVerify disables certificate verification toward NetBox.
	// It is fed only from config.Config.SkipTLSVerify.
	InsecureSkipVerify bool
	// HTTPClient replaces the client built from the options above; tests use it.
	HTTPClient *http.Client
}

// Client talks to one NetBox instance. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	baseURL    string
	base       *url.URL
	token      string
	httpClient *http.Client
}

// NewClient validates the options and builds the HTTP transport.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("NetBox base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid NetBox base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	if opts.InsecureSkipVerify {
		logging.InventoryLogger.Warn("TLS certificate verification toward NetBox is disabled", "base_url", opts.BaseURL)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		base:       base,
		token:      opts.Token,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Read issues a GET for path with optional query parameters.
func (c *Client) Read(ctx context.Context, path string, query url.Values) Result {
	target, err := c.endpoint(path, query)
	if err != nil {
		return refused("read", err)
	}
	return c.do(ctx, http.MethodGet, target, nil, "read")
}

// Create POSTs payload to path. The payload is validated before any request
// is made; a *ValidationError is returned when it is not a non-empty object.
func (c *Client) Create(ctx context.Context, path string, payload any) (Result, error) {
	body, err := NormalizePayload(payload)
	if err != nil {
		logging.InventoryLogger.Debug("Create rejected before request", "path", path, "error", err)
		return Result{}, err
	}
	target, err := c.endpoint(path, nil)
	if err != nil {
		return refused("create", err), nil
	}
	return c.do(ctx, http.MethodPost, target, body, "create"), nil
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) Result {
	target, err := c.endpoint(path, nil)
	if err != nil {
		return refused("delete", err)
	}
	return c.do(ctx, http.MethodDelete, target, nil, "delete")
}

// ErrForeignHost rejects absolute URLs that point away from the configured
// NetBox. The API token is only ever sent to the base URL's scheme and host.
var ErrForeignHost = errors.New("URL is not on the configured NetBox host")

func refused(operation string, err error) Result {
	logging.InventoryLogger.Warn("Request refused before sending", "operation", operation, "error", err)
	return transportError(err.Error())
}

// endpoint joins path onto the base URL. Absolute URLs, such as the "next"
// links of paginated responses, are accepted only on the base URL's scheme
// and host.
func (c *Client) endpoint(path string, query url.Values) (string, error) {
	var target string
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		if !SameHost(c.base, path) {
			return "", fmt.Errorf("%w: %s", ErrForeignHost, path)
		}
		target = path
	case strings.HasPrefix(path, "/"):
		target = c.baseURL + path
	default:
		target = c.baseURL + "/" + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return target, nil
}

// SameHost reports whether raw is an absolute URL with base's scheme and host.
func SameHost(base *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || base == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host) && u.User == nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, operation string) Result {
	logger := logging.InventoryLogger
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
		logging.LogContent(logger, slog.LevelDebug, "Request body", "operation", operation, "body", string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		logger.Debug("Failed to create HTTP request", "operation", operation, "error", err)
		return transportError(fmt.Sprintf("could not build request: %v", err))
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Sending request", "operation", operation, "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := describeTransportError(err)
		logger.Warn("Request did not complete", "operation", operation, "url", target, "reason", reason, "duration", time.Since(start))
		return transportError(reason)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("Failed to read response body", "operation", operation, "status", resp.StatusCode, "error", err)
		return transportError(fmt.Sprintf("failed to read %s response body: %v", operation, err))
	}
	logger.Debug("Response received", "operation", operation, "status", resp.StatusCode, "bytes", len(content), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		summary := summarizeErrorBody(resp.Header.Get("Content-Type"), content)
		logger.Info("NetBox rejected request", "operation", operation, "status", resp.StatusCode, "body", summary)
		return httpError(resp.StatusCode, summary)
	}

	logging.LogContent(logger, slog.LevelDebug, "Response body", "operation", operation, "body", string(content))
	return success(successPayload(content))
}

// successPayload keeps JSON bodies as they are and wraps anything else as a
// JSON string so callers always receive valid JSON.
func successPayload(content []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	encoded, _ := json.Marshal(string(trimmed))
	return encoded
}

// summarizeErrorBody reduces an error response to a short plain-text reason.
// NetBox error pages behind proxies are often HTML.
func summarizeErrorBody(contentType string, content []byte) string {
	text := strings.TrimSpace(string(content))
	if strings.Contains(strings.ToLower(contentType), "html") || strings.HasPrefix(strings.ToLower(text), "<!doctype html") || strings.HasPrefix(strings.ToLower(text), "<html") {
		if plain, err := html2text.FromString(text, html2text.Options{OmitLinks: true}); err == nil {
			text = strings.TrimSpace(plain)
		}
	}
	if runes := []rune(text); len(runes) > maxErrorBody {
		text = string(runes[:maxErrorBody]) + "..."
	}
	return text
}

func describeTransportError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request was cancelled"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "request timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
