package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/basecruz/stockbridge/internal/shared"
)

// Enricher attaches named per-location stock to every variant.
type Enricher struct {
	levels    *LevelFetcher
	locations *LocationDirectory
	logger    *slog.Logger
}

// NewEnricher composes the level fetcher with the location directory.
func NewEnricher(levels *LevelFetcher, locations *LocationDirectory, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{levels: levels, locations: locations, logger: logger}
}

// Enrich is best-effort: on failure the products are returned exactly as given.
func (e *Enricher) Enrich(ctx context.Context, products []Product) []Product {
	enriched, err := e.enrich(ctx, products)
	if err != nil {
		e.logger.Warn("enrich inventory levels", slog.Int("products", len(products)), slog.Any("error", err))
		return products
	}
	return enriched
}

func (e *Enricher) enrich(ctx context.Context, products []Product) ([]Product, error) {
	if e == nil || e.levels == nil || e.locations == nil {
		return nil, errors.New("catalog: enricher not configured")
	}
	var ids []shared.ID
	for _, p := range products {
		for _, v := range p.Variants {
			if v.InventoryItemID != 0 {
				ids = append(ids, v.InventoryItemID)
			}
		}
	}
	byItem := e.levels.FetchLevels(ctx, ids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := e.locations.Locations(ctx)

	out := make([]Product, len(products))
	for i, p := range products {
		variants := make([]Variant, len(p.Variants))
		for j, v := range p.Variants {
			v.InventoryLevels = []InventoryLevel{}
			if v.InventoryItemID != 0 {
				for _, lvl := range byItem[v.InventoryItemID] {
					lvl.LocationName = names[lvl.LocationID]
					if lvl.LocationName == "" {
						lvl.LocationName = PlaceholderLocationName(lvl.LocationID)
					}
					v.InventoryLevels = append(v.InventoryLevels, lvl)
				}
			}
			variants[j] = v
		}
		p.Variants = variants
		out[i] = p
	}
	return out, nil
}
