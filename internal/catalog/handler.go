package catalog

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// Handler exposes the enriched product listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
}

type productsResponse struct {
	Count        int       `json:"count"`
	NextPageInfo *string   `json:"next_page_info"`
	Products     []Product `json:"products"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	limit, pageInfo, err := PageParams(r)
	if err != nil {
		httpx.BadRequest(w, "invalid pagination parameters", err)
		return
	}
	page, err := h.service.ListProducts(r.Context(), limit, pageInfo)
	if err != nil {
		h.logger.Error("list products", slog.String("request_id", reqID), slog.Int("status", httpx.StatusOf(err)), slog.Any("error", err))
		httpx.RespondError(w, err, "could not fetch products")
		return
	}
	h.logger.Info("list products", slog.String("request_id", reqID), slog.Int("count", len(page.Products)), slog.String("next_page_info", page.NextPageInfo))
	products := page.Products
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, productsResponse{
		Count:        len(products),
		NextPageInfo: OptionalCursor(page.NextPageInfo),
		Products:     products,
	})
}

// PageParams reads the optional limit and page_info query parameters.
func PageParams(r *http.Request) (int, string, error) {
	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, "", fmt.Errorf("invalid limit %q", raw)
		}
		limit = n
	}
	return limit, strings.TrimSpace(q.Get("page_info")), nil
}

// OptionalCursor maps the terminal empty cursor to JSON null.
func OptionalCursor(cursor string) *string {
	if cursor == "" {
		return nil
	}
	return &cursor
}
