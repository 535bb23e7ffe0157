package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

// Handler serves the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a dashboard handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := h.service.Build(r.Context(), Filters{
		Department:    q.Get("department"),
		InventoryType: q.Get("inventory_type"),
		Search:        q.Get("q"),
	})
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
