// Package externalstock talks to the warehouse system that holds the real stock.
package externalstock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/basecruz/stockbridge/internal/shared"
)

// StockByProductQuery is the named query returning per-warehouse stock of one SKU.
const StockByProductQuery = "stockPorProducto"

// ErrNotConfigured is returned when the endpoint URL is absent.
var ErrNotConfigured = errors.New("externalstock: endpoint not configured")

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(service, endpoint string, status int, elapsed time.Duration)
}

// Config carries endpoint coordinates.
type Config struct {
	QueryURL string
	FeedURL  string
	APIKey   string
	Timeout  time.Duration
}

// Client wraps both external integrations.
type Client struct {
	cfg        Config
	httpClient *http.Client
	observer   Observer
}

// NewClient constructs a new client.
func NewClient(cfg Config, httpClient *http.Client, observer Observer) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, observer: observer}
}

// UpstreamError is a non-2xx answer from the external system.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("externalstock %s failed: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// HTTPStatus reports the upstream status.
func (e *UpstreamError) HTTPStatus() int {
	return e.Status
}

// ErrorDetails exposes the upstream "error" member when the body is JSON.
func (e *UpstreamError) ErrorDetails() any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if msg, ok := payload["error"]; ok {
			return msg
		}
		return payload
	}
	return e.Body
}

// Row is one warehouse line of the stock-by-product query.
type Row struct {
	Warehouse WarehouseCode   `json:"bodega"`
	StockReal shared.Quantity `json:"stock_real"`
}

type queryRequest struct {
	QueryName string   `json:"queryName"`
	Params    []string `json:"params"`
}

type queryResponse struct {
	Data json.RawMessage `json:"data"`
}

// StockBySKU runs the stock-by-product query for one SKU. A missing or non-array data
// member yields no rows.
func (c *Client) StockBySKU(ctx context.Context, sku string) ([]Row, error) {
	if strings.TrimSpace(c.cfg.QueryURL) == "" {
		return nil, fmt.Errorf("%w: EXTERNAL_STOCK_URL", ErrNotConfigured)
	}
	payload, err := json.Marshal(queryRequest{QueryName: StockByProductQuery, Params: []string{sku}})
	if err != nil {
		return nil, err
	}
	body, err := c.send(ctx, http.MethodPost, c.cfg.QueryURL, "query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("externalstock: decode query: %w", err)
	}
	trimmed := bytes.TrimSpace(resp.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("externalstock: decode rows: %w", err)
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		if row, ok := decodeRow(item); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type rawRow struct {
	Warehouse json.RawMessage `json:"bodega"`
	StockReal json.RawMessage `json:"stock_real"`
}

// decodeRow converts one data element on its own. Elements that cannot be read as an object or carry
// an unreadable warehouse are dropped; an unreadable stock value counts as absent.
func decodeRow(item json.RawMessage) (Row, bool) {
	var raw rawRow
	if err := json.Unmarshal(item, &raw); err != nil {
		return Row{}, false
	}
	var row Row
	if len(raw.Warehouse) > 0 {
		if err := json.Unmarshal(raw.Warehouse, &row.Warehouse); err != nil {
			return Row{}, false
		}
	}
	if len(raw.StockReal) > 0 {
		if err := json.Unmarshal(raw.StockReal, &row.StockReal); err != nil {
			row.StockReal = shared.Quantity{}
		}
	}
	return row, true
}

// DesiredFeed downloads the raw desired-stock feed.
func (c *Client) DesiredFeed(ctx context.Context) (json.RawMessage, error) {
	if strings.TrimSpace(c.cfg.FeedURL) == "" {
		return nil, fmt.Errorf("%w: EXTERNAL_FEED_URL", ErrNotConfigured)
	}
	body, err := c.send(ctx, http.MethodGet, c.cfg.FeedURL, "feed", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) send(ctx context.Context, method, endpoint, label string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(label, 0, start)
		return nil, fmt.Errorf("externalstock %s: %w", label, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(label, resp.StatusCode, start)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("externalstock %s: read body: %w", label, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Endpoint: label, Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	return payload, nil
}

func (c *Client) observe(label string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream("externalstock", label, status, time.Since(start))
}
