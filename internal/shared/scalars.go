package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is an upstream numeric identifier that may arrive as a JSON number or string.
type ID int64

// UnmarshalJSON accepts 123, "123" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw, isNull, err := scalarText(data)
	if err != nil {
		return err
	}
	if isNull || raw == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("shared: invalid id %q", raw)
	}
	*id = ID(n)
	return nil
}

// String formats the id in base 10.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a base 10 id, ignoring surrounding whitespace.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("shared: invalid id %q", s)
	}
	return ID(n), nil
}

// Quantity is a stock amount decoded from a JSON number or numeric string; fractional
// values are rounded to the nearest unit.
type Quantity struct {
	Value int64
	Set   bool
}

// Qty builds a present quantity.
func Qty(v int64) Quantity {
	return Quantity{Value: v, Set: true}
}

// UnmarshalJSON accepts 5, 5.0, "5" and null (absent).
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw, isNull, err := scalarText(data)
	if err != nil {
		return err
	}
	if isNull || raw == "" {
		*q = Quantity{}
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("shared: invalid quantity %q", raw)
	}
	*q = Quantity{Value: int64(math.Round(f)), Set: true}
	return nil
}

// MarshalJSON writes the number, or null when absent.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(q.Value, 10)), nil
}

// OrZero returns the value, or 0 when absent.
func (q Quantity) OrZero() int64 {
	if !q.Set {
		return 0
	}
	return q.Value
}

func scalarText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", true, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		return strings.TrimSpace(s), false, nil
	}
	if data[0] == '{' || data[0] == '[' {
		return "", false, fmt.Errorf("shared: expected scalar, got %s", string(data))
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		return "", false, fmt.Errorf("shared: expected number, got %s", string(data))
	}
	return string(data), false, nil
}
