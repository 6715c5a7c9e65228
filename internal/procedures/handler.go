package procedures

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for the procedure catalog.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new procedures handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/procedures.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "is_active must be true or false")
			return
		}
		filter.IsActive = &active
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list procedures", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"procedures": list,
		"count":      len(list),
	})
}

// Popular handles GET /api/procedures/popular.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	list, err := h.repo.Popular(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to rank procedures", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"procedures": list})
}

// Create handles POST /api/procedures.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req UpsertProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create procedure")
		return
	}
	h.logger.Info("procedure created", "id", p.ID, "name", p.Name)
	respond.JSON(w, http.StatusCreated, p)
}

// Get handles GET /api/procedures/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get procedure")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Update handles PUT /api/procedures/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpsertProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err, "failed to update procedure")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/procedures/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete procedure")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrProcedureNotFound):
		respond.Error(w, http.StatusNotFound, "procedure not found")
	case errors.Is(err, ErrProcedureReferenced):
		respond.Error(w, http.StatusConflict, "procedure is used by treatments and cannot be deleted")
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidCost),
		errors.Is(err, ErrInvalidDuration):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}
