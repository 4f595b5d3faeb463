package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/shared"
)

const levelsPageLimit = "250"

// FetchLevels reads one page of inventory levels for ids, or continues pageInfo.
func (c *Client) FetchLevels(ctx context.Context, ids []shared.ID, pageInfo string) (catalog.LevelPage, error) {
	query := url.Values{}
	query.Set("limit", levelsPageLimit)
	if pageInfo != "" {
		query.Set("page_info", pageInfo)
	} else {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, id.String())
		}
		query.Set("inventory_item_ids", strings.Join(parts, ","))
	}
	var resp inventoryLevelsResponse
	header, err := c.do(ctx, http.MethodGet, "/inventory_levels.json", query, nil, &resp)
	if err != nil {
		return catalog.LevelPage{}, err
	}
	levels := make([]catalog.ItemLevel, 0, len(resp.InventoryLevels))
	for _, lvl := range resp.InventoryLevels {
		levels = append(levels, catalog.ItemLevel{
			InventoryItemID: lvl.InventoryItemID,
			LocationID:      lvl.LocationID,
			Available:       lvl.Available,
		})
	}
	return catalog.LevelPage{Levels: levels, NextPageInfo: nextPageInfo(header.Get("Link"))}, nil
}

// FetchLocations lists store locations.
func (c *Client) FetchLocations(ctx context.Context) ([]catalog.Location, error) {
	var resp locationsResponse
	if _, err := c.do(ctx, http.MethodGet, "/locations.json", nil, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]catalog.Location, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		out = append(out, catalog.Location{ID: loc.ID, Name: loc.Name})
	}
	return out, nil
}

type setLevelRequest struct {
	LocationID      shared.ID `json:"location_id"`
	InventoryItemID shared.ID `json:"inventory_item_id"`
	Available       int64     `json:"available"`
}

// SetInventoryLevel sets the available quantity of an item at a location.
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID shared.ID, available int64) (map[string]any, error) {
	var resp map[string]any
	body := setLevelRequest{LocationID: locationID, InventoryItemID: inventoryItemID, Available: available}
	if _, err := c.do(ctx, http.MethodPost, "/inventory_levels/set.json", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
