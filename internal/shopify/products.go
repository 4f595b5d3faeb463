package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/shared"
)

// ErrVariantNotFound is returned when a variant or SKU has no upstream match.
var ErrVariantNotFound = errors.New("shopify: variant not found")

// FetchProducts reads one page of products. The cursor is passed through unmodified.
func (c *Client) FetchProducts(ctx context.Context, limit int, pageInfo string) (catalog.Page, error) {
	if limit <= 0 {
		limit = catalog.DefaultPageSize
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if pageInfo != "" {
		query.Set("page_info", pageInfo)
	}
	var resp productsResponse
	header, err := c.do(ctx, http.MethodGet, "/products.json", query, nil, &resp)
	if err != nil {
		return catalog.Page{}, err
	}
	products := make([]catalog.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, mapProduct(p))
	}
	return catalog.Page{Products: products, NextPageInfo: nextPageInfo(header.Get("Link"))}, nil
}

// FetchVariant reads a single variant.
func (c *Client) FetchVariant(ctx context.Context, variantID shared.ID) (catalog.Variant, error) {
	var resp variantResponse
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/variants/%d.json", int64(variantID)), nil, nil, &resp); err != nil {
		return catalog.Variant{}, err
	}
	if resp.Variant == nil {
		return catalog.Variant{}, fmt.Errorf("%w: id %d", ErrVariantNotFound, int64(variantID))
	}
	return mapVariant(*resp.Variant), nil
}

// InventoryItemIDForVariant resolves the inventory item behind a variant.
func (c *Client) InventoryItemIDForVariant(ctx context.Context, variantID shared.ID) (shared.ID, error) {
	variant, err := c.FetchVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	if variant.InventoryItemID == 0 {
		return 0, fmt.Errorf("shopify: variant %d has no inventory_item_id", int64(variantID))
	}
	return variant.InventoryItemID, nil
}

// PriceUpdate is the payload of a variant price change.
type PriceUpdate struct {
	ID             shared.ID `json:"id"`
	Price          string    `json:"price"`
	CompareAtPrice *string   `json:"compare_at_price,omitempty"`
}

// UpdateVariantPrice sets price and optionally compare_at_price and returns the upstream body.
func (c *Client) UpdateVariantPrice(ctx context.Context, update PriceUpdate) (map[string]any, error) {
	var resp map[string]any
	body := map[string]any{"variant": update}
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/variants/%d.json", int64(update.ID)), nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
