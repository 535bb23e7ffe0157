package lookup

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

// Handler exposes lookup options over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a lookup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers lookup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleOptions)
	r.Post("/reload", h.handleReload)
	r.Post("/resolve", h.handleResolve)
	r.Post("/departments", h.handleAddDepartment)
	r.Post("/items", h.handleAddItem)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := Selection{InventoryType: q.Get("inventory_type"), Department: q.Get("department")}
	httpx.JSON(w, http.StatusOK, h.service.Table().OptionsFor(sel))
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("reload lookup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"rows": t.Len()})
}

type resolveRequest struct {
	Selection Selection `json:"selection"`
	Field     string    `json:"field" validate:"required,oneof=inventoryType department itemsName"`
	Value     string    `json:"value"`
}

type resolveResponse struct {
	Selection Selection `json:"selection"`
	Options   Options   `json:"options"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t := h.service.Table()
	sel := req.Selection
	switch req.Field {
	case "inventoryType":
		sel = t.WithType(sel, req.Value)
	case "department":
		sel = t.WithDepartment(sel, req.Value)
	case "itemsName":
		sel = t.WithItem(sel, req.Value)
	}
	httpx.JSON(w, http.StatusOK, resolveResponse{Selection: sel, Options: t.OptionsFor(sel)})
}

type addDepartmentRequest struct {
	InventoryType string `json:"inventoryType" validate:"required"`
	Department    string `json:"department" validate:"required"`
}

type addItemRequest struct {
	InventoryType string `json:"inventoryType" validate:"required"`
	Department    string `json:"department" validate:"required"`
	Item          string `json:"item" validate:"required"`
}

func (h *Handler) handleAddDepartment(w http.ResponseWriter, r *http.Request) {
	var req addDepartmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.AddDepartment(r.Context(), req.InventoryType, req.Department)
	h.respondAppend(w, t, Selection{InventoryType: req.InventoryType, Department: req.Department}, err)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.AddItem(r.Context(), req.InventoryType, req.Department, req.Item)
	h.respondAppend(w, t, Selection{InventoryType: req.InventoryType, Department: req.Department, ItemsName: req.Item}, err)
}

// respondAppend reports a persist failure while still returning the
// optimistically updated options.
func (h *Handler) respondAppend(w http.ResponseWriter, t Table, sel Selection, err error) {
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, resolveResponse{Selection: sel, Options: t.OptionsFor(sel)})
	case errors.Is(err, ErrPersistLookup):
		httpx.ProblemWith(w, http.StatusBadGateway, "Option Not Saved", err.Error(), map[string]any{
			"options": t.OptionsFor(sel),
		})
	case errors.Is(err, ErrInvalidTuple):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("append lookup", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
