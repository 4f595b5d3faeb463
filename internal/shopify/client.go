// Package shopify is the transport to the Shopify Admin API.
package shopify

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

	"github.com/basecruz/stockbridge/internal/catalog"
)

const defaultAPIVersion = "2024-10"

// Config carries the store coordinates.
type Config struct {
	StoreDomain string
	AdminToken  string
	APIVersion  string
	Timeout     time.Duration
}

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(service, endpoint string, status int, elapsed time.Duration)
}

// Client talks to one store.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// NewClient builds a Client. Missing store settings are reported per call, not here.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger, observer Observer) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger, observer: observer}
}

// UpstreamError is a non-2xx answer from the Admin API.
type UpstreamError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("shopify %s %s failed: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("shopify %s %s failed: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// HTTPStatus reports the upstream status.
func (e *UpstreamError) HTTPStatus() int {
	return e.Status
}

// ErrorDetails exposes the upstream "errors" member when the body is JSON.
func (e *UpstreamError) ErrorDetails() any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if errs, ok := payload["errors"]; ok {
			return errs
		}
		return payload
	}
	if e.Body == "" {
		return e.Error()
	}
	return e.Body
}

func (c *Client) baseURL() (string, error) {
	domain := strings.TrimSpace(c.cfg.StoreDomain)
	if domain == "" {
		return "", fmt.Errorf("%w: SHOPIFY_STORE_DOMAIN", catalog.ErrConfiguration)
	}
	if strings.TrimSpace(c.cfg.AdminToken) == "" {
		return "", fmt.Errorf("%w: SHOPIFY_ADMIN_TOKEN", catalog.ErrConfiguration)
	}
	domain = strings.TrimSuffix(domain, "/")
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return domain + "/admin/api/" + c.cfg.APIVersion, nil
}

// do issues one Admin API call and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (http.Header, error) {
	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}
	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shopify: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AdminToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, 0, start)
		return nil, fmt.Errorf("shopify %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(path, resp.StatusCode, start)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("shopify %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	if out != nil && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, fmt.Errorf("shopify %s %s: decode: %w", method, path, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) observe(path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream("shopify", endpointLabel(path), status, time.Since(start))
}

// endpointLabel collapses numeric path segments to keep metric cardinality bounded.
func endpointLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		trimmed := strings.TrimSuffix(part, ".json")
		if trimmed != "" && strings.Trim(trimmed, "0123456789") == "" {
			parts[i] = strings.Replace(part, trimmed, ":id", 1)
		}
	}
	return strings.Join(parts, "/")
}
