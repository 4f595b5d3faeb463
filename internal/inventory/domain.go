// Package inventory applies stock and price updates to the catalog, one item at a time.
package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/basecruz/stockbridge/internal/shared"
	"github.com/basecruz/stockbridge/internal/shopify"
)

// StockWriter resolves inventory items and writes levels upstream.
type StockWriter interface {
	InventoryItemIDForVariant(ctx context.Context, variantID shared.ID) (shared.ID, error)
	InventoryItemIDBySKU(ctx context.Context, sku string) (shared.ID, error)
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID shared.ID, available int64) (map[string]any, error)
}

// PriceWriter updates variant prices upstream.
type PriceWriter interface {
	UpdateVariantPrice(ctx context.Context, update shopify.PriceUpdate) (map[string]any, error)
}

// LocationLister returns the location directory.
type LocationLister interface {
	Locations(ctx context.Context) map[shared.ID]string
}

// StockUpdate is one requested stock change. The item is identified by inventory item,
// variant or SKU (in that precedence) and the location by id or name; without either,
// every configured legacy location is written.
type StockUpdate struct {
	InventoryItemID shared.ID       `json:"inventory_item_id" validate:"gte=0"`
	VariantID       shared.ID       `json:"variant_id" validate:"gte=0"`
	SKU             string          `json:"sku" validate:"max=255"`
	Available       shared.Quantity `json:"available"`
	LocationID      shared.ID       `json:"location_id" validate:"gte=0"`
	LocationName    string          `json:"location_name" validate:"max=255"`

	decodeErr error
}

// LocationOutcome is the result of one location write in multi-location mode.
type LocationOutcome struct {
	LocationID shared.ID `json:"location_id"`
	OK         bool      `json:"ok"`
	Data       any       `json:"data,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// StockResult reports the outcome of one StockUpdate.
type StockResult struct {
	OK              bool              `json:"ok"`
	InventoryItemID shared.ID         `json:"inventory_item_id,omitempty"`
	VariantID       shared.ID         `json:"variant_id,omitempty"`
	SKU             string            `json:"sku,omitempty"`
	LocationID      shared.ID         `json:"location_id,omitempty"`
	Locations       []LocationOutcome `json:"locations,omitempty"`
	Available       shared.Quantity   `json:"available"`
	Data            any               `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// PriceUpdate is one requested price change. Prices arrive as numbers or strings.
type PriceUpdate struct {
	VariantID      shared.ID           `json:"variant_id" validate:"gte=0"`
	Price          decimal.NullDecimal `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`

	decodeErr error
}

// PriceResult reports the outcome of one PriceUpdate.
type PriceResult struct {
	OK             bool      `json:"ok"`
	VariantID      shared.ID `json:"variant_id,omitempty"`
	Price          string    `json:"price,omitempty"`
	CompareAtPrice *string   `json:"compare_at_price,omitempty"`
	Data           any       `json:"data,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Batch is the response envelope of both update endpoints.
type Batch[T any] struct {
	OK      bool `json:"ok"`
	Count   int  `json:"count"`
	Results []T  `json:"results"`
}
