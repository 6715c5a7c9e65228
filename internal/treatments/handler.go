package treatments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for treatments.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new treatments handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/treatments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		PatientID: q.Get("patient_id"),
		Limit:     50,
	}
	if s := q.Get("payment_status"); s != "" {
		status := PaymentStatus(s)
		if !status.Valid() {
			respond.Error(w, http.StatusBadRequest, "unknown payment_status")
			return
		}
		filter.PaymentStatus = status
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list treatments", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"treatments": list,
		"count":      len(list),
	})
}

// StatsHandler handles GET /api/treatments/stats.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to aggregate treatment stats", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stats": s})
}

// Create handles POST /api/treatments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req UpsertTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create treatment")
		return
	}
	h.logger.Info("treatment created",
		"id", t.ID, "patient_id", t.PatientID, "total_cost", t.TotalCost)
	respond.JSON(w, http.StatusCreated, t)
}

// Get handles GET /api/treatments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get treatment")
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// Update handles PUT /api/treatments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpsertTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err, "failed to update treatment")
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/treatments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete treatment")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrTreatmentNotFound):
		respond.Error(w, http.StatusNotFound, "treatment not found")
	case errors.Is(err, ErrMissingPatient),
		errors.Is(err, ErrNoLineItems),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidPaymentStatus),
		errors.Is(err, ErrMissingProcedure):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}
