package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/inventory"
	"github.com/basecruz/stockbridge/internal/shared"
)

// FeedSource downloads the desired stock feed.
type FeedSource interface {
	DesiredFeed(ctx context.Context) (json.RawMessage, error)
}

// VariantReader reads the current state of one variant.
type VariantReader interface {
	FetchVariant(ctx context.Context, variantID shared.ID) (catalog.Variant, error)
}

// LevelReader reads per-location stock for inventory items.
type LevelReader interface {
	FetchLevels(ctx context.Context, ids []shared.ID) map[shared.ID][]catalog.InventoryLevel
}

// UpdateApplier applies stock updates with per-item results.
type UpdateApplier interface {
	TargetLocations(ctx context.Context, update inventory.StockUpdate) ([]shared.ID, error)
	Apply(ctx context.Context, updates []inventory.StockUpdate) []inventory.StockResult
}

// Result summarises one reconciliation run.
type Result struct {
	OK             bool                    `json:"ok"`
	Checked        int                     `json:"checked"`
	Skipped        int                     `json:"skipped"`
	Changed        int                     `json:"changed"`
	UpdatesApplied int                     `json:"updates_applied"`
	Results        []inventory.StockResult `json:"results"`
}

// Job recomputes the diff on every run; it keeps no memory of earlier runs.
type Job struct {
	feed     FeedSource
	variants VariantReader
	levels   LevelReader
	applier  UpdateApplier
	logger   *slog.Logger
}

// NewJob builds a reconciliation Job. Without levels the diff falls back to the
// variant's total quantity.
func NewJob(feed FeedSource, variants VariantReader, levels LevelReader, applier UpdateApplier, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{feed: feed, variants: variants, levels: levels, applier: applier, logger: logger}
}

type candidate struct {
	update  inventory.StockUpdate
	variant catalog.Variant
}

// Run fetches the feed, reads every entry's variant one at a time, compares the desired
// quantity with the level at each location the update would write, and applies the
// changed subset. Lookup failures skip the entry.
func (j *Job) Run(ctx context.Context) (Result, error) {
	raw, err := j.feed.DesiredFeed(ctx)
	if err != nil {
		return Result{}, err
	}
	entries, problems, err := DecodeFeed(raw)
	if err != nil {
		return Result{}, err
	}
	for _, p := range problems {
		j.logger.Warn("stock sync: malformed feed entry", slog.Any("error", p))
	}

	result := Result{OK: true, Skipped: len(problems), Results: []inventory.StockResult{}}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		variant, err := j.variants.FetchVariant(ctx, entry.VariantID)
		if err != nil {
			j.logger.Warn("stock sync: variant lookup", slog.Int64("variant_id", int64(entry.VariantID)), slog.Any("error", err))
			result.Skipped++
			continue
		}
		result.Checked++
		itemID := entry.InventoryItemID
		if itemID == 0 {
			itemID = variant.InventoryItemID
		}
		candidates = append(candidates, candidate{
			variant: variant,
			update: inventory.StockUpdate{
				InventoryItemID: itemID,
				VariantID:       entry.VariantID,
				Available:       entry.Available,
				LocationID:      entry.LocationID,
			},
		})
	}

	current := j.currentLevels(ctx, candidates)
	var changes []inventory.StockUpdate
	for _, c := range candidates {
		if j.changed(ctx, c, current) {
			changes = append(changes, c.update)
		}
	}
	result.Changed = len(changes)
	if len(changes) == 0 {
		j.logger.Info("stock sync: nothing to apply", slog.Int("checked", result.Checked))
		return result, nil
	}

	result.Results = j.applier.Apply(ctx, changes)
	for _, r := range result.Results {
		if r.OK {
			result.UpdatesApplied++
		}
	}
	j.logger.Info("stock sync applied", slog.Int("changed", result.Changed), slog.Int("updates_applied", result.UpdatesApplied))
	return result, nil
}

func (j *Job) currentLevels(ctx context.Context, candidates []candidate) map[shared.ID][]catalog.InventoryLevel {
	if j.levels == nil || len(candidates) == 0 {
		return nil
	}
	ids := make([]shared.ID, 0, len(candidates))
	for _, c := range candidates {
		if c.update.InventoryItemID != 0 {
			ids = append(ids, c.update.InventoryItemID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return j.levels.FetchLevels(ctx, ids)
}

// changed reports whether any target location holds a quantity other than the desired
// one. Unknown items, unresolvable locations and missing levels count as changed so the
// applier reports the outcome.
func (j *Job) changed(ctx context.Context, c candidate, current map[shared.ID][]catalog.InventoryLevel) bool {
	desired := c.update.Available
	if j.levels == nil {
		return !c.variant.InventoryQuantity.Set || c.variant.InventoryQuantity.Value != desired.Value
	}
	if c.update.InventoryItemID == 0 {
		return true
	}
	targets, err := j.applier.TargetLocations(ctx, c.update)
	if err != nil || len(targets) == 0 {
		return true
	}
	byLocation := make(map[shared.ID]shared.Quantity, len(current[c.update.InventoryItemID]))
	for _, lvl := range current[c.update.InventoryItemID] {
		byLocation[lvl.LocationID] = lvl.Available
	}
	for _, loc := range targets {
		have, ok := byLocation[loc]
		if !ok || !have.Set || have.Value != desired.Value {
			return true
		}
	}
	return false
}
