package qrtokens

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the token variant, which determines expiry and usage semantics.
type Type string

const (
	// TypeGeneric never expires and can be used any number of times.
	TypeGeneric Type = "generic"
	// TypeReusable expires but allows multiple uses until then.
	TypeReusable Type = "reusable"
	// TypeSingleUse expires and allows exactly one use.
	TypeSingleUse Type = "single_use"
)

// Valid reports whether t is a recognized variant.
func (t Type) Valid() bool {
	switch t {
	case TypeGeneric, TypeReusable, TypeSingleUse:
		return true
	}
	return false
}

// DeletionSeverity is returned with each token so clients can scale the
// delete confirmation: a generic token may be printed on posters nobody
// tracks, so it gets the strongest gate.
type DeletionSeverity string

const (
	SeverityDanger   DeletionSeverity = "danger"
	SeverityWarning  DeletionSeverity = "warning"
	SeverityStandard DeletionSeverity = "standard"
)

// QRToken is a self-registration entry ticket.
type QRToken struct {
	ID              string     `json:"id"`
	Token           string     `json:"token"`
	Type            Type       `json:"qr_type"`
	RegistrationURL string     `json:"registration_url"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	UsageCount      int        `json:"usage_count"`
	Used            bool       `json:"used"`
	Note            string     `json:"note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Severity classifies how strongly a deletion must be confirmed.
func (t *QRToken) Severity() DeletionSeverity {
	switch {
	case t.Type == TypeGeneric:
		return SeverityDanger
	case t.Type == TypeReusable && t.UsageCount > 0:
		return SeverityWarning
	default:
		return SeverityStandard
	}
}

// Expired reports whether the token is past its expiry at the given time.
// Generic tokens never expire.
func (t *QRToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// GenerateRequest is the body for creating a token.
type GenerateRequest struct {
	Type           Type   `json:"qr_type"`
	ExpiresInHours int    `json:"expires_in_hours"`
	Note           string `json:"note"`
}

// Validate checks the request. Expiring variants need a positive window;
// generic tokens must not carry one.
func (r *GenerateRequest) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if r.Type != TypeGeneric && r.ExpiresInHours <= 0 {
		return ErrInvalidExpiry
	}
	return nil
}

// NewToken mints the token value: a uuid without separators, compact
// enough for a QR payload.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RegistrationURL builds the public link encoded into the QR image.
func RegistrationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/register/" + token
}
