package reminders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/smilepoint/clinic-api/internal/api/respond"
	"github.com/smilepoint/clinic-api/internal/notify"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Handler handles HTTP requests for reminder configuration.
type Handler struct {
	repo       Repository
	sender     notify.EmailSender
	clinicName string
	logger     *logging.Logger
}

// NewHandler creates a reminders handler. The sender delivers test emails;
// pass the stub when email is disabled.
func NewHandler(repo Repository, sender notify.EmailSender, clinicName string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = notify.NewStubEmailSender(logger)
	}
	return &Handler{repo: repo, sender: sender, clinicName: clinicName, logger: logger}
}

// GetConfig handles GET /api/reminders/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to load reminder configs", "error", err)
		respond.Internal(w)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"configs": list})
}

// PutConfig handles PUT /api/reminders/config: replaces one schedule's row.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.repo.Upsert(r.Context(), &cfg)
	if err != nil {
		h.writeError(w, err, "failed to save reminder config")
		return
	}
	h.logger.Info("reminder config updated", "reminder_type", saved.Type, "enabled", saved.IsEnabled)
	respond.JSON(w, http.StatusOK, saved)
}

// testSendRequest is the body for POST /api/reminders/config/test.
type testSendRequest struct {
	Type  ReminderType `json:"reminder_type"`
	Email string       `json:"email"`
}

// TestSend handles POST /api/reminders/config/test: renders the template
// with sample values and delivers one email to the given address.
func (h *Handler) TestSend(w http.ResponseWriter, r *http.Request) {
	var req testSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respond.Error(w, http.StatusBadRequest, ErrNoRecipient.Error())
		return
	}
	if !req.Type.Valid() {
		respond.Error(w, http.StatusBadRequest, ErrInvalidType.Error())
		return
	}

	cfg, err := h.repo.Get(r.Context(), req.Type)
	if err != nil {
		h.writeError(w, err, "failed to load reminder config")
		return
	}

	values := SampleValues(h.clinicName)
	msg := notify.EmailMessage{
		To:      req.Email,
		Subject: Render(cfg.Subject, values),
		Body:    Render(cfg.Body, values),
	}
	if err := h.sender.Send(r.Context(), msg); err != nil {
		h.logger.Error("reminder test send failed", "error", err, "to", req.Email)
		respond.Error(w, http.StatusBadGateway, "failed to send test email")
		return
	}
	h.logger.Info("reminder test email sent", "reminder_type", req.Type, "to", req.Email)
	respond.JSON(w, http.StatusOK, map[string]string{"sent_to": req.Email})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrConfigNotFound):
		respond.Error(w, http.StatusNotFound, "reminder config not found")
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidHours):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		respond.Internal(w)
	}
}
