package entry

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

const maxImageBytes = 10 << 20

// Handler exposes the entry workflows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs an entry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.handleStock)
	r.Post("/add-stock", h.handleAddStock)
	r.Post("/purchase", h.handlePurchase)
	r.Post("/issue", h.handleIssue)
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.StockItems(r.Context(), r.URL.Query().Get("inventory_type"))
	if err != nil {
		h.fail(w, "list stock items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// handleAddStock accepts JSON, or multipart with a "payload" JSON field and
// an optional "image" file.
func (h *Handler) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var in AddStock
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &in); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return
		}
		blob, err := readImage(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
			return
		}
		in.Image = blob
	} else if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}

	res, err := h.service.AddStock(r.Context(), in)
	if err != nil {
		h.fail(w, "add stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var in Purchase
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	res, err := h.service.Purchase(r.Context(), in)
	if err != nil {
		h.fail(w, "record purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var in Issue
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	res, err := h.service.Issue(r.Context(), in)
	if err != nil {
		h.fail(w, "record issue", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ledger.ErrUploadFailed) {
		h.logger.Warn(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upload Failed", err.Error())
		return
	}
	if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func readImage(r *http.Request) (*ledger.Blob, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, errors.New("image exceeds 10MB")
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return &ledger.Blob{Data: data, FileName: header.Filename, MIMEType: mimeType}, nil
}
