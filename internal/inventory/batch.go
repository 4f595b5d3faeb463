package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// SplitBatch accepts a single update object, a bare array, or an {"updates": ...}
// envelope and returns the raw items. An absent, empty or itemless body is a
// validation error.
func SplitBatch(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("%w: body with updates or an update object is required", httpx.ErrValidation)
	}
	switch body[0] {
	case '[':
		return splitArray(body)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		if updates, ok := fields["updates"]; ok {
			updates = bytes.TrimSpace(updates)
			if len(updates) > 0 && updates[0] == '{' {
				return []json.RawMessage{updates}, nil
			}
			return splitArray(updates)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: update object is empty", httpx.ErrValidation)
		}
		return []json.RawMessage{body}, nil
	default:
		return nil, fmt.Errorf("%w: body must be an object or an array", httpx.ErrValidation)
	}
}

func splitArray(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: updates must be an array: %v", httpx.ErrValidation, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: updates is empty", httpx.ErrValidation)
	}
	return items, nil
}

// DecodeStockUpdates decodes every raw item. Items that fail to decode are kept and
// reported as failed results by the applier.
func DecodeStockUpdates(items []json.RawMessage) []StockUpdate {
	updates := make([]StockUpdate, len(items))
	for i, raw := range items {
		if err := json.Unmarshal(raw, &updates[i]); err != nil {
			updates[i] = StockUpdate{decodeErr: err}
		}
	}
	return updates
}

// DecodePriceUpdates decodes every raw item, keeping undecodable ones as failures.
func DecodePriceUpdates(items []json.RawMessage) []PriceUpdate {
	updates := make([]PriceUpdate, len(items))
	for i, raw := range items {
		if err := json.Unmarshal(raw, &updates[i]); err != nil {
			updates[i] = PriceUpdate{decodeErr: err}
		}
	}
	return updates
}
