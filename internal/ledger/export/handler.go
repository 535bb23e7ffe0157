package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

// Handler serves ledger downloads.
type Handler struct {
	logger  *slog.Logger
	service *ledger.Service
}

// NewHandler constructs an export handler.
func NewHandler(logger *slog.Logger, service *ledger.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export.csv", h.handleCSV)
	r.Get("/export.xlsx", h.handleXLSX)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) (ledger.View, bool) {
	section, err := ledger.ParseSection(r.URL.Query().Get("section"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Section", err.Error())
		return ledger.View{}, false
	}
	spec, err := ledger.SpecFromQuery(r.URL.Query(), h.service.Location())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return ledger.View{}, false
	}
	v, err := h.service.View(r.Context(), section, spec)
	if err != nil {
		h.logger.Error("export view", slog.Any("error", err))
		httpx.RespondError(w, err)
		return ledger.View{}, false
	}
	if len(v.Records) == 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", ErrNothingToExport.Error())
		return ledger.View{}, false
	}
	return v, true
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(v.Section, "csv"))
	if err := WriteLedgerCSV(w, v.Records); err != nil && !errors.Is(err, ErrNothingToExport) {
		h.logger.Error("write csv", slog.Any("error", err))
	}
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(v.Section, "xlsx"))
	if err := WriteLedgerXLSX(w, v, time.Now()); err != nil {
		h.logger.Error("write xlsx", slog.Any("error", err))
	}
}

func attachment(section ledger.Section, ext string) string {
	return fmt.Sprintf(`attachment; filename="inventory-%s-%s.%s"`, section, time.Now().Format("2006-01-02"), ext)
}
