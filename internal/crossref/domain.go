// Package crossref matches catalog SKUs against the external warehouse stock.
package crossref

import (
	"context"
	"strings"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/externalstock"
	"github.com/basecruz/stockbridge/internal/shared"
)

// StockSource runs the per-SKU warehouse query.
type StockSource interface {
	StockBySKU(ctx context.Context, sku string) ([]externalstock.Row, error)
}

// ProductLister returns one enriched catalog page.
type ProductLister interface {
	ListProducts(ctx context.Context, limit int, pageInfo string) (catalog.Page, error)
}

// Entry is one SKU submitted to the cross-reference together with its catalog context.
type Entry struct {
	SKU           string
	ProductName   string
	ShopifyStock  shared.Quantity
	ShopifyLevels []catalog.InventoryLevel
}

// Row is one (SKU, warehouse) pair. Placeholder rows use an empty warehouse for "no
// data" and WarehouseExternalError when the query failed.
type Row struct {
	Warehouse     externalstock.WarehouseCode `json:"bodega"`
	WarehouseName *string                     `json:"nombre_bodega"`
	SKU           string                      `json:"producto"`
	StockReal     int64                       `json:"stock_real"`
	ProductName   string                      `json:"product_name"`
	ShopifyStock  shared.Quantity             `json:"shopify_stock"`
	ShopifyLevels []catalog.InventoryLevel    `json:"shopify_bodegas"`
}

// WarehouseStock is a sub-row of a grouped record.
type WarehouseStock struct {
	Warehouse     externalstock.WarehouseCode `json:"bodega"`
	WarehouseName *string                     `json:"nombre_bodega"`
	StockReal     int64                       `json:"stock_real"`
}

// Group is the per-SKU record produced when grouping is requested.
type Group struct {
	SKU           string                   `json:"sku"`
	ProductName   string                   `json:"product_name"`
	ShopifyStock  shared.Quantity          `json:"shopify_stock"`
	ShopifyLevels []catalog.InventoryLevel `json:"shopify_bodegas"`
	Warehouses    []WarehouseStock         `json:"bodegas"`
}

// EntriesFromProducts extracts every variant that carries a SKU, in catalog order.
func EntriesFromProducts(products []catalog.Product) []Entry {
	var entries []Entry
	for _, p := range products {
		for _, v := range p.Variants {
			sku := strings.TrimSpace(v.SKU)
			if sku == "" {
				continue
			}
			levels := v.InventoryLevels
			if levels == nil {
				levels = []catalog.InventoryLevel{}
			}
			entries = append(entries, Entry{
				SKU:           sku,
				ProductName:   p.Title,
				ShopifyStock:  v.InventoryQuantity,
				ShopifyLevels: levels,
			})
		}
	}
	return entries
}
