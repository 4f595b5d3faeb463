package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/basecruz/stockbridge/internal/shopify"
)

// PriceApplier applies variant price updates item by item.
type PriceApplier struct {
	writer   PriceWriter
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPriceApplier builds a PriceApplier.
func NewPriceApplier(writer PriceWriter, logger *slog.Logger) *PriceApplier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceApplier{writer: writer, validate: newValidator(), logger: logger}
}

// Apply processes updates in order and returns exactly one result per update.
func (p *PriceApplier) Apply(ctx context.Context, updates []PriceUpdate) []PriceResult {
	results := make([]PriceResult, 0, len(updates))
	for i, u := range updates {
		result := p.applyOne(ctx, u)
		if !result.OK {
			p.logger.Warn("price update failed", slog.Int("index", i), slog.String("error", result.Error))
		}
		results = append(results, result)
	}
	return results
}

func (p *PriceApplier) applyOne(ctx context.Context, u PriceUpdate) PriceResult {
	result := PriceResult{VariantID: u.VariantID}
	if u.decodeErr != nil {
		result.Error = fmt.Sprintf("invalid update: %v", u.decodeErr)
		return result
	}
	if err := p.validate.Struct(u); err != nil {
		result.Error = describe(err)
		return result
	}
	update := shopify.PriceUpdate{ID: u.VariantID, Price: formatPrice(u.Price.Decimal)}
	result.Price = update.Price
	if u.CompareAtPrice.Valid {
		compare := formatPrice(u.CompareAtPrice.Decimal)
		update.CompareAtPrice = &compare
		result.CompareAtPrice = &compare
	}
	data, err := p.writer.UpdateVariantPrice(ctx, update)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	result.Data = data
	return result
}

// formatPrice renders a price with two decimals, the form the catalog stores.
func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
