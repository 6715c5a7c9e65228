package calendar

import (
	"errors"
	"net/http"
	"time"

	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/internal/dateutil"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler serves the rendered calendar structure.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new calendar handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Get handles GET /api/calendar?view=&pivot=.
// pivot defaults to today; view defaults to month.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	view := ViewMode(q.Get("view"))
	if view == "" {
		view = DefaultView
	}
	if !view.Valid() {
		respond.Error(w, http.StatusBadRequest, "unknown view mode")
		return
	}

	pivot := dateutil.Truncate(time.Now().UTC())
	if p := q.Get("pivot"); p != "" {
		parsed, err := dateutil.ParseDate(p)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "pivot must be YYYY-MM-DD")
			return
		}
		pivot = parsed
	}

	result, err := h.service.BuildView(r.Context(), view, pivot)
	if err != nil {
		if errors.Is(err, ErrStaleFetch) {
			// Superseded mid-flight; the newer request carries the answer.
			respond.Error(w, http.StatusConflict, "superseded by a newer calendar request")
			return
		}
		h.logger.Error("failed to build calendar view", "view", string(view), "error", err)
		respond.Error(w, http.StatusBadGateway, "failed to load appointments, please retry")
		return
	}
	respond.JSON(w, http.StatusOK, result)
}
