package dashboard

import (
	"context"
	"net/http"

	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// StatsProvider is what the handler needs; the repository satisfies it.
type StatsProvider interface {
	GetStats(ctx context.Context) (*Stats, error)
}

// Handler handles HTTP requests for dashboard metrics.
type Handler struct {
	stats  StatsProvider
	logger *logging.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(stats StatsProvider, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stats: stats, logger: logger}
}

// GetStats handles GET /api/dashboard/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to aggregate dashboard stats", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}
