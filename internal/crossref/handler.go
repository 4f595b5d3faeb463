package crossref

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// Handler exposes the cross-reference endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cross-reference routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/obtenerporductosbasecruz", h.crossReference)
}

type crossRefResponse struct {
	Success      bool    `json:"success"`
	NextPageInfo *string `json:"next_page_info"`
	Data         any     `json:"data"`
}

func (h *Handler) crossReference(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	limit, pageInfo, err := catalog.PageParams(r)
	if err != nil {
		httpx.BadRequest(w, "invalid pagination parameters", err)
		return
	}
	result, err := h.service.Run(r.Context(), limit, pageInfo)
	if err != nil {
		h.logger.Error("cross reference", slog.String("request_id", reqID), slog.Int("status", httpx.StatusOf(err)), slog.Any("error", err))
		httpx.RespondError(w, err, "could not fetch external stock data")
		return
	}
	resp := crossRefResponse{Success: true, NextPageInfo: catalog.OptionalCursor(result.NextPageInfo), Data: result.Rows}
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("group")), "sku") {
		groups := GroupBySKU(result.Rows)
		resp.Data = groups
		h.logger.Info("cross reference", slog.String("request_id", reqID), slog.Int("rows", len(result.Rows)), slog.Int("groups", len(groups)))
	} else {
		h.logger.Info("cross reference", slog.String("request_id", reqID), slog.Int("rows", len(result.Rows)))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
