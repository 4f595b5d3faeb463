package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/basecruz/stockbridge/internal/shared"
)

// DefaultPageSize is used when a caller does not pass a limit.
const DefaultPageSize = 50

// ErrConfiguration marks a required setting that is absent.
var ErrConfiguration = errors.New("catalog: configuration missing")

// Product is a snapshot of upstream product state at fetch time.
type Product struct {
	ID          shared.ID `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        string    `json:"tags"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	Images      []Image   `json:"images"`
	Variants    []Variant `json:"variants"`
}

// Image is a product picture.
type Image struct {
	ID  shared.ID `json:"id"`
	Src string    `json:"src"`
	Alt *string   `json:"alt"`
}

// Variant is a purchasable configuration of a product. InventoryLevels is only
// populated by the enrichment stage.
type Variant struct {
	ID                shared.ID        `json:"id"`
	Title             string           `json:"title"`
	SKU               string           `json:"sku"`
	Price             string           `json:"price"`
	CompareAtPrice    *string          `json:"compare_at_price"`
	InventoryQuantity shared.Quantity  `json:"inventory_quantity"`
	InventoryPolicy   string           `json:"inventory_policy"`
	InventoryItemID   shared.ID        `json:"inventory_item_id"`
	InventoryLevels   []InventoryLevel `json:"inventory_levels"`
}

// InventoryLevel is the stock of one inventory item at one location.
type InventoryLevel struct {
	LocationID   shared.ID       `json:"location_id"`
	LocationName string          `json:"location_name,omitempty"`
	Available    shared.Quantity `json:"available"`
}

// Location is a fulfillment point.
type Location struct {
	ID   shared.ID `json:"id"`
	Name string    `json:"name"`
}

// Page is one page of the upstream product listing.
type Page struct {
	Products     []Product
	NextPageInfo string
}

// LevelPage is one page of inventory levels for a batch of inventory items.
type LevelPage struct {
	Levels       []ItemLevel
	NextPageInfo string
}

// ItemLevel is a raw level row as reported upstream.
type ItemLevel struct {
	InventoryItemID shared.ID
	LocationID      shared.ID
	Available       shared.Quantity
}

// ProductSource lists catalog products.
type ProductSource interface {
	FetchProducts(ctx context.Context, limit int, pageInfo string) (Page, error)
}

// LevelSource reads inventory levels. An empty pageInfo requests the first page for ids;
// a non-empty one continues a previous listing.
type LevelSource interface {
	FetchLevels(ctx context.Context, ids []shared.ID, pageInfo string) (LevelPage, error)
}

// LocationSource lists store locations.
type LocationSource interface {
	FetchLocations(ctx context.Context) ([]Location, error)
}

// PlaceholderLocationName is used when the directory has no entry for id.
func PlaceholderLocationName(id shared.ID) string {
	return fmt.Sprintf("Location %d", int64(id))
}
