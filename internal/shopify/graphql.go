package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/basecruz/stockbridge/internal/shared"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type variantBySKUData struct {
	ProductVariants struct {
		Nodes []struct {
			ID            string `json:"id"`
			SKU           string `json:"sku"`
			InventoryItem *struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"nodes"`
	} `json:"productVariants"`
}

func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	var resp graphQLResponse
	payload := graphQLRequest{Query: strings.TrimSpace(query), Variables: variables}
	if _, err := c.do(ctx, http.MethodPost, "/graphql.json", nil, payload, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("shopify graphql errors: %s", strings.Join(messages, "; "))
	}
	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 {
		return errors.New("shopify graphql response missing data")
	}
	return json.Unmarshal(resp.Data, out)
}

// InventoryItemIDBySKU finds the inventory item of the first variant carrying sku.
func (c *Client) InventoryItemIDBySKU(ctx context.Context, sku string) (shared.ID, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return 0, errors.New("shopify: sku is required")
	}

	query := `
	query inventoryItemBySku($first: Int!, $query: String!) {
		productVariants(first: $first, query: $query) {
			nodes { id sku inventoryItem { id } }
		}
	}`

	var data variantBySKUData
	if err := c.graphqlRequest(ctx, query, map[string]any{
		"first": 1,
		"query": buildSearchQuery("sku", sku),
	}, &data); err != nil {
		return 0, err
	}
	if len(data.ProductVariants.Nodes) == 0 {
		return 0, fmt.Errorf("%w: sku %s", ErrVariantNotFound, sku)
	}
	node := data.ProductVariants.Nodes[0]
	if node.InventoryItem == nil {
		return 0, fmt.Errorf("shopify: inventory item missing for sku %s", sku)
	}
	return legacyID(node.InventoryItem.ID)
}

func buildSearchQuery(field, value string) string {
	queryValue := strings.TrimSpace(value)
	if strings.ContainsAny(queryValue, " \"") {
		queryValue = strings.ReplaceAll(queryValue, `"`, `\"`)
		queryValue = fmt.Sprintf(`"%s"`, queryValue)
	}
	return fmt.Sprintf("%s:%s", field, queryValue)
}

// legacyID converts "gid://shopify/InventoryItem/123" to the REST id 123.
func legacyID(gid string) (shared.ID, error) {
	gid = strings.TrimSpace(gid)
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		gid = gid[idx+1:]
	}
	return shared.ParseID(gid)
}
