package shopify

import (
	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/shared"
)

type productsResponse struct {
	Products []productDTO `json:"products"`
}

type productDTO struct {
	ID          shared.ID    `json:"id"`
	Title       string       `json:"title"`
	Status      string       `json:"status"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Tags        string       `json:"tags"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	Images      []imageDTO   `json:"images"`
	Variants    []variantDTO `json:"variants"`
}

type imageDTO struct {
	ID  shared.ID `json:"id"`
	Src string    `json:"src"`
	Alt *string   `json:"alt"`
}

type variantDTO struct {
	ID                shared.ID       `json:"id"`
	Title             string          `json:"title"`
	SKU               *string         `json:"sku"`
	Price             *string         `json:"price"`
	CompareAtPrice    *string         `json:"compare_at_price"`
	InventoryQuantity shared.Quantity `json:"inventory_quantity"`
	InventoryPolicy   string          `json:"inventory_policy"`
	InventoryItemID   shared.ID       `json:"inventory_item_id"`
}

type variantResponse struct {
	Variant *variantDTO `json:"variant"`
}

type inventoryLevelsResponse struct {
	InventoryLevels []inventoryLevelDTO `json:"inventory_levels"`
}

type inventoryLevelDTO struct {
	InventoryItemID shared.ID       `json:"inventory_item_id"`
	LocationID      shared.ID       `json:"location_id"`
	Available       shared.Quantity `json:"available"`
}

type locationsResponse struct {
	Locations []locationDTO `json:"locations"`
}

type locationDTO struct {
	ID   shared.ID `json:"id"`
	Name string    `json:"name"`
}

// mapProduct is total: absent optional fields map to empty values.
func mapProduct(p productDTO) catalog.Product {
	out := catalog.Product{
		ID:          p.ID,
		Title:       p.Title,
		Status:      p.Status,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Tags:        p.Tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Images:      make([]catalog.Image, 0, len(p.Images)),
		Variants:    make([]catalog.Variant, 0, len(p.Variants)),
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, catalog.Image{ID: img.ID, Src: img.Src, Alt: img.Alt})
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, mapVariant(v))
	}
	return out
}

func mapVariant(v variantDTO) catalog.Variant {
	return catalog.Variant{
		ID:                v.ID,
		Title:             v.Title,
		SKU:               deref(v.SKU),
		Price:             deref(v.Price),
		CompareAtPrice:    v.CompareAtPrice,
		InventoryQuantity: v.InventoryQuantity,
		InventoryPolicy:   v.InventoryPolicy,
		InventoryItemID:   v.InventoryItemID,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
