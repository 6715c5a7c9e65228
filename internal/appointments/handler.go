package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Status:    Status(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, "unknown status")
		return
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"appointments": list,
		"count":        len(list),
	})
}

// Create handles POST /api/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create appointment")
		return
	}
	h.logger.Info("appointment created", "id", a.ID, "date", a.AppointmentDate, "time", a.AppointmentTime)
	respond.JSON(w, http.StatusCreated, a)
}

// Get handles GET /api/appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get appointment")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

// Update handles PUT /api/appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, err, "failed to update appointment")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

// ChangeStatus handles PUT /api/appointments/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.repo.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, err, "failed to change appointment status")
		return
	}
	h.logger.Info("appointment status changed", "id", a.ID, "status", a.Status)
	respond.JSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete appointment")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		respond.Error(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "status transition not allowed")
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMissingPatient):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}
