package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

const maxBodyBytes = 1 << 20

// Handler exposes the stock and price update endpoints.
type Handler struct {
	logger *slog.Logger
	stock  *Applier
	prices *PriceApplier
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, stock *Applier, prices *PriceApplier) *Handler {
	return &Handler{logger: logger, stock: stock, prices: prices}
}

// MountRoutes registers update routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stock", h.updateStock)
	r.Post("/prices", h.updatePrices)
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	items, err := readBatch(w, r)
	if err != nil {
		h.logger.Warn("stock update rejected", slog.String("request_id", reqID), slog.Any("error", err))
		rejectBatch(w, err)
		return
	}
	results := h.stock.Apply(r.Context(), DecodeStockUpdates(items))
	ok := true
	for _, res := range results {
		ok = ok && res.OK
	}
	h.logger.Info("stock update", slog.String("request_id", reqID), slog.Int("count", len(results)), slog.Bool("ok", ok))
	httpx.JSON(w, http.StatusOK, Batch[StockResult]{OK: ok, Count: len(results), Results: results})
}

func (h *Handler) updatePrices(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	items, err := readBatch(w, r)
	if err != nil {
		h.logger.Warn("price update rejected", slog.String("request_id", reqID), slog.Any("error", err))
		rejectBatch(w, err)
		return
	}
	results := h.prices.Apply(r.Context(), DecodePriceUpdates(items))
	ok := true
	for _, res := range results {
		ok = ok && res.OK
	}
	h.logger.Info("price update", slog.String("request_id", reqID), slog.Int("count", len(results)), slog.Bool("ok", ok))
	httpx.JSON(w, http.StatusOK, Batch[PriceResult]{OK: ok, Count: len(results), Results: results})
}

func readBatch(w http.ResponseWriter, r *http.Request) ([]json.RawMessage, error) {
	if r.Body == nil {
		return SplitBatch(nil)
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read body: %v", httpx.ErrValidation, err)
	}
	return SplitBatch(body)
}

func rejectBatch(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.Fail(w, http.StatusRequestEntityTooLarge, "body too large", fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	httpx.RespondError(w, err, "missing body with updates or an update object")
}
