// Package reconcile diffs the external desired stock against the catalog and applies
// only the changes.
package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/basecruz/stockbridge/internal/shared"
)

// ErrFeedFormat is returned when the desired feed is neither an array nor an
// {"updates": [...]} envelope.
var ErrFeedFormat = errors.New("reconcile: unexpected desired stock feed format")

// DesiredStock is one entry of the external feed.
type DesiredStock struct {
	VariantID       shared.ID       `json:"variant_id"`
	InventoryItemID shared.ID       `json:"inventory_item_id"`
	LocationID      shared.ID       `json:"location_id"`
	Available       shared.Quantity `json:"available"`
}

// DecodeFeed accepts a bare array or an {"updates": [...]} envelope. Entries that do not
// decode are returned as errors alongside the good ones.
func DecodeFeed(raw []byte) ([]DesiredStock, []error, error) {
	raw = bytes.TrimSpace(raw)
	var items []json.RawMessage
	switch {
	case len(raw) > 0 && raw[0] == '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFeedFormat, err)
		}
	case len(raw) > 0 && raw[0] == '{':
		var envelope struct {
			Updates json.RawMessage `json:"updates"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFeedFormat, err)
		}
		updates := bytes.TrimSpace(envelope.Updates)
		if len(updates) == 0 || updates[0] != '[' {
			return nil, nil, fmt.Errorf("%w: missing updates array", ErrFeedFormat)
		}
		if err := json.Unmarshal(updates, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrFeedFormat, err)
		}
	default:
		return nil, nil, ErrFeedFormat
	}

	entries := make([]DesiredStock, 0, len(items))
	var problems []error
	for i, item := range items {
		var entry DesiredStock
		if err := json.Unmarshal(item, &entry); err != nil {
			problems = append(problems, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if entry.VariantID == 0 || !entry.Available.Set {
			problems = append(problems, fmt.Errorf("entry %d: variant_id and available are required", i))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, problems, nil
}
