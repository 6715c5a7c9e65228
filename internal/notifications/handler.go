package notifications

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for the notification bell.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	list, err := h.repo.List(r.Context(), unreadOnly, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		respond.Internal(w)
		return
	}
	unread, err := h.repo.UnreadCount(r.Context())
	if err != nil {
		h.logger.Error("failed to count unread notifications", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unread_count":  unread,
	})
}

// markReadRequest is the body for PUT /api/notifications. Either a list of
// IDs or all=true.
type markReadRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// MarkRead handles PUT /api/notifications.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.All && len(req.IDs) == 0 {
		respond.Error(w, http.StatusBadRequest, "provide ids or all=true")
		return
	}

	var (
		changed int
		err     error
	)
	if req.All {
		changed, err = h.repo.MarkAllRead(r.Context())
	} else {
		changed, err = h.repo.MarkRead(r.Context(), req.IDs)
	}
	if err != nil {
		h.logger.Error("failed to mark notifications read", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"updated": changed})
}
