package reconcile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// Handler triggers reconciliation over HTTP.
type Handler struct {
	logger *slog.Logger
	job    *Job
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, job *Job) *Handler {
	return &Handler{logger: logger, job: job}
}

// MountRoutes registers reconciliation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cron/stock-sync", h.stockSync)
}

func (h *Handler) stockSync(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	result, err := h.job.Run(r.Context())
	if err != nil {
		h.logger.Error("stock sync", slog.String("request_id", reqID), slog.Int("status", httpx.StatusOf(err)), slog.Any("error", err))
		httpx.RespondError(w, err, "stock synchronization failed")
		return
	}
	h.logger.Info("stock sync", slog.String("request_id", reqID), slog.Int("updates_applied", result.UpdatesApplied))
	httpx.JSON(w, http.StatusOK, result)
}
