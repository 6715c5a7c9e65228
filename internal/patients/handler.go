package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for patients.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/patients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"patients": list,
		"count":    len(list),
	})
}

// Create handles POST /api/patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create patient")
		return
	}

	h.logger.Info("patient created", "id", p.ID, "patient_id", p.PatientID)
	respond.JSON(w, http.StatusCreated, p)
}

// Get handles GET /api/patients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "failed to get patient")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Update handles PUT /api/patients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "failed to update patient")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/patients/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete patient")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id})
}

// ExportCSVHandler handles GET /api/patients/export. The export is built
// client-side of the datastore: it reuses the same filtered listing the
// table shows and streams a CSV download.
func (h *Handler) ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list patients for export", "error", err)
		respond.Internal(w)
		return
	}

	data, err := ExportCSV(list)
	if err != nil {
		h.logger.Error("failed to build csv export", "error", err)
		respond.Internal(w)
		return
	}

	filename := ExportFilename(time.Now(), filter.Search)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		respond.Error(w, http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrPatientReferenced):
		respond.Error(w, http.StatusConflict, "patient has treatment records and cannot be deleted")
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidBirthDate),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrInvalidHistory):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}

func parseListFilter(r *http.Request) ListFilter {
	filter := ListFilter{Limit: 50}
	filter.Search = r.URL.Query().Get("search")
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	return filter
}
