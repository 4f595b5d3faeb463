package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/platform/httpx"
	"github.com/basecruz/stockbridge/internal/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{StoreDomain: srv.URL, AdminToken: "tok", APIVersion: "2024-10"}, srv.Client(), nil, nil)
}

func TestFetchProductsMapsAndPaginates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/2024-10/products.json", r.URL.Path)
		require.Equal(t, "tok", r.Header.Get("X-Shopify-Access-Token"))
		require.Equal(t, "2", r.URL.Query().Get("limit"))
		require.Equal(t, "cursor-1", r.URL.Query().Get("page_info"))
		w.Header().Set("Link", `<https://x/admin/api/2024-10/products.json?limit=2&page_info=cursor-2>; rel="next"`)
		_, _ = io.WriteString(w, `{"products":[{"id":1,"title":"Tyre","variants":[{"id":10,"sku":null,"price":"9.90","inventory_quantity":4,"inventory_item_id":111}],"images":[{"id":5,"src":"http://img","alt":null}]}]}`)
	})

	page, err := client.FetchProducts(context.Background(), 2, "cursor-1")
	require.NoError(t, err)
	require.Equal(t, "cursor-2", page.NextPageInfo)
	require.Len(t, page.Products, 1)
	p := page.Products[0]
	require.Equal(t, shared.ID(1), p.ID)
	require.Len(t, p.Variants, 1)
	require.Equal(t, "", p.Variants[0].SKU)
	require.Equal(t, "9.90", p.Variants[0].Price)
	require.Equal(t, shared.ID(111), p.Variants[0].InventoryItemID)
	require.Equal(t, shared.Qty(4), p.Variants[0].InventoryQuantity)
	require.Nil(t, p.Variants[0].InventoryLevels)
	require.Len(t, p.Images, 1)
}

func TestFetchProductsWithoutLinkIsTerminal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"products":[]}`)
	})
	page, err := client.FetchProducts(context.Background(), 0, "")
	require.NoError(t, err)
	require.Empty(t, page.NextPageInfo)
	require.Empty(t, page.Products)
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":"[API] Invalid API key or access token"}`)
	})
	_, err := client.FetchProducts(context.Background(), 10, "")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusUnauthorized, upstream.Status)
	require.Equal(t, http.StatusUnauthorized, httpx.StatusOf(err))
	require.Equal(t, "[API] Invalid API key or access token", httpx.DetailsOf(err))
}

func TestMissingStoreSettingsIsConfigurationError(t *testing.T) {
	client := NewClient(Config{AdminToken: "tok"}, nil, nil, nil)
	_, err := client.FetchProducts(context.Background(), 10, "")
	require.True(t, errors.Is(err, catalog.ErrConfiguration))
	require.Equal(t, http.StatusInternalServerError, httpx.StatusOf(err))
}

func TestFetchLevelsFirstPageAndContinuation(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/2024-10/inventory_levels.json", r.URL.Path)
		q := r.URL.Query()
		if q.Get("page_info") == "" {
			seen = append(seen, "ids="+q.Get("inventory_item_ids"))
			w.Header().Set("Link", `<https://x/inventory_levels.json?page_info=p2>; rel="next"`)
			_, _ = io.WriteString(w, `{"inventory_levels":[{"inventory_item_id":111,"location_id":70,"available":5}]}`)
			return
		}
		require.Empty(t, q.Get("inventory_item_ids"))
		seen = append(seen, "page="+q.Get("page_info"))
		_, _ = io.WriteString(w, `{"inventory_levels":[{"inventory_item_id":111,"location_id":75,"available":null}]}`)
	})

	first, err := client.FetchLevels(context.Background(), []shared.ID{111, 222}, "")
	require.NoError(t, err)
	require.Equal(t, "p2", first.NextPageInfo)
	require.Equal(t, []catalog.ItemLevel{{InventoryItemID: 111, LocationID: 70, Available: shared.Qty(5)}}, first.Levels)

	second, err := client.FetchLevels(context.Background(), []shared.ID{111, 222}, "p2")
	require.NoError(t, err)
	require.Empty(t, second.NextPageInfo)
	require.False(t, second.Levels[0].Available.Set)
	require.Equal(t, []string{"ids=111,222", "page=p2"}, seen)
}

func TestSetInventoryLevelPostsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/api/2024-10/inventory_levels/set.json", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.EqualValues(t, 111, body["inventory_item_id"])
		require.EqualValues(t, 70, body["location_id"])
		require.EqualValues(t, 9, body["available"])
		_, _ = io.WriteString(w, `{"inventory_level":{"available":9}}`)
	})
	data, err := client.SetInventoryLevel(context.Background(), 111, 70, 9)
	require.NoError(t, err)
	require.Contains(t, data, "inventory_level")
}

func TestInventoryItemIDBySKU(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Variables["query"] {
		case "sku:ABC-1":
			_, _ = io.WriteString(w, `{"data":{"productVariants":{"nodes":[{"id":"gid://shopify/ProductVariant/10","sku":"ABC-1","inventoryItem":{"id":"gid://shopify/InventoryItem/555"}}]}}}`)
		default:
			_, _ = io.WriteString(w, `{"data":{"productVariants":{"nodes":[]}}}`)
		}
	})

	id, err := client.InventoryItemIDBySKU(context.Background(), " ABC-1 ")
	require.NoError(t, err)
	require.Equal(t, shared.ID(555), id)

	_, err = client.InventoryItemIDBySKU(context.Background(), "missing")
	require.ErrorIs(t, err, ErrVariantNotFound)
}

func TestBuildSearchQueryQuotesSpaces(t *testing.T) {
	require.Equal(t, `sku:"A B"`, buildSearchQuery("sku", "A B"))
	require.Equal(t, `sku:AB`, buildSearchQuery("sku", "AB"))
}
