package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(stockUpdateRules, StockUpdate{})
	v.RegisterStructValidation(priceUpdateRules, PriceUpdate{})
	return v
}

func stockUpdateRules(sl validator.StructLevel) {
	u := sl.Current().Interface().(StockUpdate)
	if !u.Available.Set {
		sl.ReportError(u.Available, "available", "Available", "required", "")
	}
	if u.InventoryItemID == 0 && u.VariantID == 0 && strings.TrimSpace(u.SKU) == "" {
		sl.ReportError(u.InventoryItemID, "inventory_item_id", "InventoryItemID", "required_without_all", "variant_id sku")
	}
}

func priceUpdateRules(sl validator.StructLevel) {
	u := sl.Current().Interface().(PriceUpdate)
	if u.VariantID == 0 {
		sl.ReportError(u.VariantID, "variant_id", "VariantID", "required", "")
	}
	if !u.Price.Valid {
		sl.ReportError(u.Price, "price", "Price", "required", "")
	} else if u.Price.Decimal.IsNegative() {
		sl.ReportError(u.Price, "price", "Price", "gte", "0")
	}
	if u.CompareAtPrice.Valid && u.CompareAtPrice.Decimal.IsNegative() {
		sl.ReportError(u.CompareAtPrice, "compare_at_price", "CompareAtPrice", "gte", "0")
	}
}

// describe flattens validator errors into one client-facing sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "required_without_all":
			parts = append(parts, "inventory_item_id, variant_id or sku is required")
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
