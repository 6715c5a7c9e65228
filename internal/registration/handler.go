package registration

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/internal/drafts"
	"github.com/smilepoint/clinic-api/internal/patients"
	"github.com/smilepoint/clinic-api/internal/qrtokens"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler serves the public self-registration endpoints.
type Handler struct {
	tokens   *qrtokens.Service
	drafts   *drafts.Store
	patients patients.Repository
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a registration handler.
func NewHandler(tokens *qrtokens.Service, store *drafts.Store, repo patients.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		tokens:   tokens,
		drafts:   store,
		patients: repo,
		logger:   logger,
		now:      time.Now,
	}
}

// Check handles GET /api/register/{token}: verifies the token is still
// consumable and restores any saved draft.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	t, err := h.tokens.Check(r.Context(), token)
	if err != nil {
		h.writeTokenError(w, err)
		return
	}

	payload := map[string]any{"qr_type": t.Type, "expires_at": t.ExpiresAt}
	draft, err := h.drafts.Restore(r.Context(), token)
	switch {
	case err == nil:
		payload["draft"] = draft
	case errors.Is(err, drafts.ErrDraftNotFound), errors.Is(err, drafts.ErrDraftExpired):
		// Nothing to restore.
	default:
		h.logger.Error("failed to restore registration draft", "error", err)
	}
	respond.JSON(w, http.StatusOK, payload)
}

// SaveDraft handles PUT /api/register/{token}/draft.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.tokens.Check(r.Context(), token); err != nil {
		h.writeTokenError(w, err)
		return
	}

	var draft drafts.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.drafts.Save(r.Context(), token, &draft); err != nil {
		h.logger.Error("failed to save registration draft", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"saved_at": draft.SavedAt})
}

// Submit handles POST /api/register/{token}: re-validates every step,
// consumes the token, creates the patient and discards the draft.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var form Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := ValidateAll(&form, true, h.now()); errs != nil {
		respond.Fields(w, errs)
		return
	}

	if _, err := h.tokens.Consume(r.Context(), token); err != nil {
		h.writeTokenError(w, err)
		return
	}

	p, err := h.patients.Create(r.Context(), form.ToCreateRequest())
	if err != nil {
		h.logger.Error("failed to create patient after token consume",
			"error", err, "token", token)
		// Give the use back so the patient can retry with the same link.
		if relErr := h.tokens.Release(r.Context(), token); relErr != nil {
			h.logger.Error("failed to release token after create failure",
				"error", relErr, "token", token)
		}
		respond.Internal(w)
		return
	}

	if err := h.drafts.Discard(r.Context(), token); err != nil {
		h.logger.Error("failed to discard registration draft", "error", err)
	}
	h.logger.Info("patient self-registered", "id", p.ID, "patient_id", p.PatientID)
	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) writeTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qrtokens.ErrTokenNotFound):
		respond.Error(w, http.StatusNotFound, "registration link is not valid")
	case errors.Is(err, qrtokens.ErrTokenExpired):
		respond.Error(w, http.StatusGone, "registration link has expired")
	case errors.Is(err, qrtokens.ErrTokenUsed):
		respond.Error(w, http.StatusGone, "registration link has already been used")
	default:
		h.logger.Error("token lookup failed", "error", err)
		respond.Internal(w)
	}
}
