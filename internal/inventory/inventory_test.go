package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/basecruz/stockbridge/internal/shared"
	"github.com/basecruz/stockbridge/internal/shopify"
)

type levelWrite struct {
	item      shared.ID
	location  shared.ID
	available int64
}

type fakeWriter struct {
	mu           sync.Mutex
	variants     map[shared.ID]shared.ID
	skus         map[string]shared.ID
	failLocation map[shared.ID]bool
	writes       []levelWrite
	prices       []shopify.PriceUpdate
	priceErr     map[shared.ID]error
}

func (f *fakeWriter) InventoryItemIDForVariant(_ context.Context, id shared.ID) (shared.ID, error) {
	if item, ok := f.variants[id]; ok {
		return item, nil
	}
	return 0, shopify.ErrVariantNotFound
}

func (f *fakeWriter) InventoryItemIDBySKU(_ context.Context, sku string) (shared.ID, error) {
	if item, ok := f.skus[sku]; ok {
		return item, nil
	}
	return 0, shopify.ErrVariantNotFound
}

func (f *fakeWriter) SetInventoryLevel(_ context.Context, item, location shared.ID, available int64) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLocation[location] {
		return nil, errors.New("location not stocked")
	}
	f.writes = append(f.writes, levelWrite{item: item, location: location, available: available})
	return map[string]any{"inventory_level": map[string]any{"available": available}}, nil
}

func (f *fakeWriter) UpdateVariantPrice(_ context.Context, update shopify.PriceUpdate) (map[string]any, error) {
	if err := f.priceErr[update.ID]; err != nil {
		return nil, err
	}
	f.prices = append(f.prices, update)
	return map[string]any{"variant": map[string]any{"id": int64(update.ID)}}, nil
}

type staticLocations map[shared.ID]string

func (s staticLocations) Locations(context.Context) map[shared.ID]string { return s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, body string) []StockUpdate {
	t.Helper()
	items, err := SplitBatch([]byte(body))
	require.NoError(t, err)
	return DecodeStockUpdates(items)
}

func TestApplyIsolatesUnresolvableItem(t *testing.T) {
	writer := &fakeWriter{
		variants: map[shared.ID]shared.ID{200: 2},
		skus:     map[string]shared.ID{"OK-4": 4},
	}
	applier := NewApplier(writer, staticLocations{70: "Santiago"}, nil, discardLogger())

	results := applier.Apply(context.Background(), decode(t, `[
		{"inventory_item_id": 1, "available": 5, "location_id": 10},
		{"variant_id": "200", "available": 3, "location_id": 10},
		{"sku": "MISSING", "available": 1, "location_id": 10},
		{"sku": "OK-4", "available": 0, "location_id": 10},
		{"inventory_item_id": 5, "available": "7", "location_name": "SANTIAGO"}
	]`))

	require.Len(t, results, 5)
	require.True(t, results[0].OK)
	require.True(t, results[1].OK)
	require.Equal(t, shared.ID(2), results[1].InventoryItemID)
	require.False(t, results[2].OK)
	require.Contains(t, results[2].Error, "MISSING")
	require.True(t, results[3].OK)
	require.True(t, results[4].OK)
	require.Equal(t, shared.ID(70), results[4].LocationID)

	require.Equal(t, []levelWrite{
		{item: 1, location: 10, available: 5},
		{item: 2, location: 10, available: 3},
		{item: 4, location: 10, available: 0},
		{item: 5, location: 70, available: 7},
	}, writer.writes)
}

func TestApplyValidationFailuresStayPerItem(t *testing.T) {
	writer := &fakeWriter{}
	applier := NewApplier(writer, nil, []shared.ID{10}, discardLogger())

	results := applier.Apply(context.Background(), decode(t, `[
		{"inventory_item_id": 1},
		{"available": 4},
		{"inventory_item_id": {"nested": true}, "available": 1},
		{"inventory_item_id": 3, "available": 2}
	]`))

	require.Len(t, results, 4)
	require.Equal(t, "available is required", results[0].Error)
	require.Equal(t, "inventory_item_id, variant_id or sku is required", results[1].Error)
	require.False(t, results[2].OK)
	require.True(t, strings.HasPrefix(results[2].Error, "invalid update"))
	require.True(t, results[3].OK)
	require.Len(t, writer.writes, 1)
}

func TestApplyUnknownLocationName(t *testing.T) {
	applier := NewApplier(&fakeWriter{}, staticLocations{70: "Santiago"}, []shared.ID{10}, discardLogger())
	results := applier.Apply(context.Background(), decode(t, `{"inventory_item_id": 1, "available": 1, "location_name": "Nowhere"}`))
	require.Len(t, results, 1)
	require.False(t, results[0].OK)
	require.Contains(t, results[0].Error, "Nowhere")
}

func TestApplyLegacyMultiLocation(t *testing.T) {
	writer := &fakeWriter{failLocation: map[shared.ID]bool{10: true}}
	applier := NewApplier(writer, nil, ParseLocationIDs([]string{"10", "x", "20"}, discardLogger()), discardLogger())

	results := applier.Apply(context.Background(), decode(t, `{"inventory_item_id": 1, "available": 9}`))
	require.Len(t, results, 1)
	require.True(t, results[0].OK)
	require.Len(t, results[0].Locations, 2)
	require.False(t, results[0].Locations[0].OK)
	require.True(t, results[0].Locations[1].OK)

	writer.failLocation[20] = true
	results = applier.Apply(context.Background(), decode(t, `{"inventory_item_id": 1, "available": 9}`))
	require.False(t, results[0].OK)
	require.Contains(t, results[0].Error, "location 10")
	require.Contains(t, results[0].Error, "location 20")
}

func TestApplyWithoutAnyLocation(t *testing.T) {
	applier := NewApplier(&fakeWriter{}, nil, nil, discardLogger())
	results := applier.Apply(context.Background(), decode(t, `{"inventory_item_id": 1, "available": 9}`))
	require.False(t, results[0].OK)
	require.Contains(t, results[0].Error, "SHOPIFY_LOCATION_ID")
}

func TestSplitBatchShapes(t *testing.T) {
	cases := map[string]int{
		`{"inventory_item_id": 1, "available": 1}`:            1,
		`[{"available": 1}, {"available": 2}]`:                2,
		`{"updates": [{"available": 1}, {"available": 2}]}`:   2,
		`{"updates": {"inventory_item_id": 1, "available": 1}}`: 1,
	}
	for body, want := range cases {
		items, err := SplitBatch([]byte(body))
		require.NoError(t, err, body)
		require.Len(t, items, want, body)
	}

	for _, body := range []string{``, `null`, `{}`, `[]`, `{"updates": []}`, `{"updates": null}`, `"text"`} {
		_, err := SplitBatch([]byte(body))
		require.Error(t, err, body)
	}
}

func newTestRouter(writer *fakeWriter) http.Handler {
	r := chi.NewRouter()
	NewHandler(discardLogger(),
		NewApplier(writer, nil, []shared.ID{10}, discardLogger()),
		NewPriceApplier(writer, discardLogger()),
	).MountRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rr
}

func TestStockHandlerRejectsEmptyBodies(t *testing.T) {
	h := newTestRouter(&fakeWriter{})
	for _, body := range []string{`{}`, `{"updates":[]}`, ``} {
		rr := post(t, h, "/stock", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, body)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
		require.NotEmpty(t, payload["error"])
	}
}

func TestUpdateHandlersRejectOversizedBodies(t *testing.T) {
	writer := &fakeWriter{}
	h := newTestRouter(writer)
	body := `{"updates":[{"inventory_item_id":1,"available":2,"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}]}`
	for _, path := range []string{"/stock", "/prices"} {
		rr := post(t, h, path, body)
		require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, path)
		require.JSONEq(t, `{"error":"body too large","details":"request body exceeds 1048576 bytes"}`, rr.Body.String())
	}
	require.Empty(t, writer.writes)
	require.Empty(t, writer.prices)
}

func TestStockHandlerReturnsEnvelope(t *testing.T) {
	writer := &fakeWriter{}
	rr := post(t, newTestRouter(writer), "/stock", `{"updates":[{"inventory_item_id":1,"available":2},{"sku":"nope","available":1}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		OK      bool          `json:"ok"`
		Count   int           `json:"count"`
		Results []StockResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.False(t, payload.OK)
	require.Equal(t, 2, payload.Count)
	require.True(t, payload.Results[0].OK)
	require.Equal(t, shared.ID(10), payload.Results[0].LocationID)
	require.False(t, payload.Results[1].OK)
}

func TestPricesHandlerNormalizesDecimals(t *testing.T) {
	writer := &fakeWriter{priceErr: map[shared.ID]error{3: errors.New("variant locked")}}
	rr := post(t, newTestRouter(writer), "/prices", `[
		{"variant_id": 1, "price": 10.5, "compare_at_price": "12"},
		{"variant_id": 2},
		{"variant_id": 3, "price": "9990"},
		{"variant_id": 4, "price": "-1"}
	]`)
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		OK      bool          `json:"ok"`
		Count   int           `json:"count"`
		Results []PriceResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Equal(t, 4, payload.Count)
	require.False(t, payload.OK)

	require.True(t, payload.Results[0].OK)
	require.Equal(t, "10.50", payload.Results[0].Price)
	require.Equal(t, "12.00", *payload.Results[0].CompareAtPrice)
	require.Equal(t, "price is required", payload.Results[1].Error)
	require.Equal(t, "variant locked", payload.Results[2].Error)
	require.Equal(t, "price must be >= 0", payload.Results[3].Error)

	require.Len(t, writer.prices, 1)
	require.Equal(t, shared.ID(1), writer.prices[0].ID)
	require.Equal(t, "10.50", writer.prices[0].Price)
}

func TestMatchLocationFoldsCase(t *testing.T) {
	dir := map[shared.ID]string{70: "Concepción - Talcahuano", 10: "Santiago", 5: "santiago"}
	id, ok := matchLocation(dir, "CONCEPCIÓN - TALCAHUANO")
	require.True(t, ok)
	require.Equal(t, shared.ID(70), id)

	id, ok = matchLocation(dir, "Santiago")
	require.True(t, ok)
	require.Equal(t, shared.ID(5), id)

	_, ok = matchLocation(dir, "Santia")
	require.False(t, ok)
}
