package ledger

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
)

// maxAttachmentBytes bounds files attached to a working copy.
const maxAttachmentBytes = 10 << 20

// Handler wires HTTP endpoints for the ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleView)
	r.Post("/reload", h.handleReload)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleOpenSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleCloseSession)
			r.Post("/select", h.handleSelect)
			r.Post("/deselect", h.handleDeselect)
			r.Post("/section", h.handleSwitchSection)
			r.Patch("/records/{recordID}", h.handleSetField)
			r.Put("/records/{recordID}/file", h.handleAttachFile)
			r.Delete("/records/{recordID}/file", h.handleDetachFile)
			r.Post("/save", h.handleSave)
		})
	})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	section, err := ParseSection(r.URL.Query().Get("section"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Section", err.Error())
		return
	}
	spec, err := SpecFromQuery(r.URL.Query(), h.service.Location())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	view, err := h.service.View(r.Context(), section, spec)
	if err != nil {
		h.fail(w, "ledger view", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Load(r.Context())
	if err != nil {
		h.fail(w, "ledger reload", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"pending":  len(snap.Pending),
		"history":  len(snap.History),
		"loadedAt": snap.LoadedAt,
	})
}

type openSessionRequest struct {
	Section string `json:"section"`
}

type sessionResponse struct {
	ID       string   `json:"id"`
	Section  Section  `json:"section"`
	Selected []Record `json:"selected"`
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return
		}
	}
	section, err := ParseSection(req.Section)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Section", err.Error())
		return
	}
	sess, err := h.service.OpenSession(r.Context(), section)
	if err != nil {
		h.fail(w, "open session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sessionResponse{ID: sess.ID(), Section: sess.Section(), Selected: []Record{}})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	h.service.Sessions().Close(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

type idsRequest struct {
	IDs []int `json:"ids"`
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req idsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.SelectAll(sess, req.IDs); err != nil {
		h.fail(w, "select records", err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleDeselect(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req idsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	for _, id := range req.IDs {
		sess.Deselect(id)
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleSwitchSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req openSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	section, err := ParseSection(req.Section)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Section", err.Error())
		return
	}
	sess.SwitchSection(section)
	h.writeSession(w, sess)
}

type setFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := sess.SetField(id, req.Field, req.Value); err != nil {
		h.fail(w, "set field", err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleAttachFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes+1<<20)
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
		return
	}
	if len(data) > maxAttachmentBytes {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "File Too Large", "attachment exceeds 10MB")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	blob := Blob{Data: data, FileName: header.Filename, MIMEType: mimeType}
	if err := sess.SetUpload(id, PendingUpload(blob)); err != nil {
		h.fail(w, "attach file", err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleDetachFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := sess.SetUpload(id, NoUpload()); err != nil {
		h.fail(w, "detach file", err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result, err := h.service.Save(r.Context(), sess)
	if err != nil {
		var saveErr *SaveError
		if errors.As(err, &saveErr) {
			httpx.ProblemWith(w, http.StatusBadGateway, "Save Incomplete", saveErr.Error(), map[string]any{
				"recordId":  saveErr.RecordID,
				"committed": saveErr.Committed,
				"remaining": saveErr.Remaining,
			})
			return
		}
		h.fail(w, "save batch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := h.service.Sessions().Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeSession(w http.ResponseWriter, sess *Session) {
	httpx.JSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), Section: sess.Section(), Selected: sess.Selected()})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrUnknownRecord), errors.Is(err, ErrSessionNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNotSelected), errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrReadOnlySection):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Edit", err.Error())
	case errors.Is(err, ErrUploadFailed):
		h.logger.Warn(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upload Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func recordID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "recordID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Record", "record id must be an integer")
		return 0, false
	}
	return id, true
}

// ParseSection reads a section name; empty means pending.
func ParseSection(v string) (Section, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(SectionPending):
		return SectionPending, nil
	case string(SectionHistory):
		return SectionHistory, nil
	default:
		return "", errors.New("section must be pending or history")
	}
}

// SpecFromQuery builds a FilterSpec from query parameters. Dates accept
// yyyy-mm-dd or dd/mm/yyyy.
func SpecFromQuery(q url.Values, loc *time.Location) (FilterSpec, error) {
	spec := FilterSpec{
		InventoryType: strings.TrimSpace(q.Get("inventory_type")),
		Department:    strings.TrimSpace(q.Get("department")),
		PartyName:     strings.TrimSpace(q.Get("party")),
		Search:        strings.TrimSpace(q.Get("q")),
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &spec.DateStart},
		{"to", &spec.DateEnd},
		{"date", &spec.ExactDate},
	} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		t, ok := ParseDate(raw, loc)
		if !ok {
			return FilterSpec{}, errors.New("invalid " + p.name + " date: " + raw)
		}
		*p.dst = t
	}
	return spec, nil
}
