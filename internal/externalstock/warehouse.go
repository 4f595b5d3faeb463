package externalstock

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// WarehouseCode is a warehouse identifier as reported by the external system. It arrives
// as a number or a string; the empty code means "no warehouse" and encodes as null.
type WarehouseCode string

// UnmarshalJSON accepts numbers, strings and null.
func (w *WarehouseCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WarehouseCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = WarehouseCode(n.String())
	return nil
}

// MarshalJSON writes numeric codes as numbers, other codes as strings, empty as null.
func (w WarehouseCode) MarshalJSON() ([]byte, error) {
	if w == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(w), 10, 64); err == nil {
		return []byte(w), nil
	}
	return json.Marshal(string(w))
}

// Matches compares codes the way the external system does: "18", 18 and 18.0 are equal.
func (w WarehouseCode) Matches(other WarehouseCode) bool {
	if w == other {
		return true
	}
	a, errA := strconv.ParseFloat(string(w), 64)
	b, errB := strconv.ParseFloat(string(other), 64)
	return errA == nil && errB == nil && a == b
}
