package qrtokens

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// tokenView decorates a token with its deletion severity for the client.
type tokenView struct {
	*QRToken
	DeletionSeverity DeletionSeverity `json:"deletion_severity"`
}

func view(t *QRToken) tokenView {
	return tokenView{QRToken: t, DeletionSeverity: t.Severity()}
}

// Handler handles HTTP requests for QR tokens.
type Handler struct {
	svc    *Service
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new QR token handler.
func NewHandler(svc *Service, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

// List handles GET /api/qr-tokens.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list qr tokens", "error", err)
		respond.Internal(w)
		return
	}
	views := make([]tokenView, 0, len(list))
	for _, t := range list {
		views = append(views, view(t))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"tokens": views,
		"count":  len(views),
	})
}

// Generate handles POST /api/qr-tokens.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.svc.Generate(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to generate qr token")
		return
	}
	h.logger.Info("qr token generated", "id", t.ID, "qr_type", t.Type)
	respond.JSON(w, http.StatusCreated, view(t))
}

// Get handles GET /api/qr-tokens/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get qr token")
		return
	}
	respond.JSON(w, http.StatusOK, view(t))
}

// Delete handles DELETE /api/qr-tokens/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "failed to delete qr token")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id})
}

// Cleanup handles POST /api/qr-tokens/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CleanupExpired(r.Context())
	if err != nil {
		h.logger.Error("failed to clean up expired qr tokens", "error", err)
		respond.Internal(w)
		return
	}
	h.logger.Info("expired qr tokens removed", "count", n)
	respond.JSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// Image handles GET /api/qr-tokens/{id}/image, streaming the QR PNG.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	t, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get qr token")
		return
	}

	png, err := EncodePNG(t.RegistrationURL)
	if err != nil {
		h.logger.Error("failed to render qr image", "error", err, "id", t.ID)
		respond.Internal(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		respond.Error(w, http.StatusNotFound, "token not found")
	case errors.Is(err, ErrTokenExpired):
		respond.Error(w, http.StatusGone, "token has expired")
	case errors.Is(err, ErrTokenUsed):
		respond.Error(w, http.StatusGone, "token has already been used")
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidExpiry):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}
