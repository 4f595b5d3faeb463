package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/basecruz/stockbridge/internal/shared"
)

// ErrLocationUnresolved is reported when no target location can be derived for an item.
var ErrLocationUnresolved = errors.New("inventory: location not resolved")

// Applier applies stock updates item by item. A failing item never stops the batch.
type Applier struct {
	writer    StockWriter
	locations LocationLister
	legacy    []shared.ID
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewApplier builds an Applier. legacyLocations are written when an item names no
// location; an empty list disables that mode.
func NewApplier(writer StockWriter, locations LocationLister, legacyLocations []shared.ID, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		writer:    writer,
		locations: locations,
		legacy:    legacyLocations,
		validate:  newValidator(),
		logger:    logger,
	}
}

// ParseLocationIDs converts configured location ids, skipping malformed entries.
func ParseLocationIDs(raw []string, logger *slog.Logger) []shared.ID {
	ids := make([]shared.ID, 0, len(raw))
	for _, s := range raw {
		id, err := shared.ParseID(s)
		if err != nil || id == 0 {
			if logger != nil {
				logger.Warn("ignoring location id", slog.String("value", s))
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Apply processes updates in order and returns exactly one result per update.
func (a *Applier) Apply(ctx context.Context, updates []StockUpdate) []StockResult {
	results := make([]StockResult, 0, len(updates))
	for i, u := range updates {
		result := a.applyOne(ctx, u)
		if !result.OK {
			a.logger.Warn("stock update failed", slog.Int("index", i), slog.String("error", result.Error))
		}
		results = append(results, result)
	}
	return results
}

func (a *Applier) applyOne(ctx context.Context, u StockUpdate) StockResult {
	result := StockResult{VariantID: u.VariantID, SKU: strings.TrimSpace(u.SKU), Available: u.Available}
	if u.decodeErr != nil {
		result.Error = fmt.Sprintf("invalid update: %v", u.decodeErr)
		return result
	}
	if err := a.validate.Struct(u); err != nil {
		result.Error = describe(err)
		return result
	}
	itemID, err := a.resolveItem(ctx, u)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.InventoryItemID = itemID

	locations, err := a.resolveLocations(ctx, u)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if len(locations) == 1 {
		result.LocationID = locations[0]
		data, err := a.writer.SetInventoryLevel(ctx, itemID, locations[0], u.Available.Value)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.OK = true
		result.Data = data
		return result
	}

	result.Locations = make([]LocationOutcome, 0, len(locations))
	var failures []string
	for _, loc := range locations {
		outcome := LocationOutcome{LocationID: loc}
		data, err := a.writer.SetInventoryLevel(ctx, itemID, loc, u.Available.Value)
		if err != nil {
			outcome.Error = err.Error()
			failures = append(failures, fmt.Sprintf("location %d: %v", int64(loc), err))
		} else {
			outcome.OK = true
			outcome.Data = data
			result.OK = true
		}
		result.Locations = append(result.Locations, outcome)
	}
	if !result.OK {
		result.Error = strings.Join(failures, "; ")
	}
	return result
}

func (a *Applier) resolveItem(ctx context.Context, u StockUpdate) (shared.ID, error) {
	switch {
	case u.InventoryItemID != 0:
		return u.InventoryItemID, nil
	case u.VariantID != 0:
		id, err := a.writer.InventoryItemIDForVariant(ctx, u.VariantID)
		if err != nil {
			return 0, fmt.Errorf("resolve variant %d: %w", int64(u.VariantID), err)
		}
		return id, nil
	default:
		sku := strings.TrimSpace(u.SKU)
		id, err := a.writer.InventoryItemIDBySKU(ctx, sku)
		if err != nil {
			return 0, fmt.Errorf("resolve sku %q: %w", sku, err)
		}
		return id, nil
	}
}

// TargetLocations reports the locations Apply would write for u.
func (a *Applier) TargetLocations(ctx context.Context, u StockUpdate) ([]shared.ID, error) {
	return a.resolveLocations(ctx, u)
}

func (a *Applier) resolveLocations(ctx context.Context, u StockUpdate) ([]shared.ID, error) {
	if u.LocationID != 0 {
		return []shared.ID{u.LocationID}, nil
	}
	if name := strings.TrimSpace(u.LocationName); name != "" {
		if a.locations == nil {
			return nil, fmt.Errorf("%w: no location directory for %q", ErrLocationUnresolved, name)
		}
		if id, ok := matchLocation(a.locations.Locations(ctx), name); ok {
			return []shared.ID{id}, nil
		}
		return nil, fmt.Errorf("%w: no location named %q", ErrLocationUnresolved, name)
	}
	if len(a.legacy) == 0 {
		return nil, fmt.Errorf("%w: location_id, location_name or SHOPIFY_LOCATION_ID is required", ErrLocationUnresolved)
	}
	return a.legacy, nil
}

// matchLocation finds the location whose name equals name under Unicode case folding.
// With duplicate names the lowest id wins.
func matchLocation(directory map[shared.ID]string, name string) (shared.ID, bool) {
	fold := cases.Fold()
	want := fold.String(name)
	var (
		found shared.ID
		ok    bool
	)
	for id, candidate := range directory {
		if fold.String(strings.TrimSpace(candidate)) != want {
			continue
		}
		if !ok || id < found {
			found, ok = id, true
		}
	}
	return found, ok
}
