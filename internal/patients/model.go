package patients

import (
	"fmt"
	"strings"
	"time"

	"github.com/smilepoint/clinic-api/internal/dateutil"
	"github.com/smilepoint/clinic-api/internal/validate"
)

// Patient represents a clinic patient record. PatientID is the stable
// display identifier shown to staff; ID is the internal row identifier.
type Patient struct {
	ID             string         `json:"id"`
	PatientID      string         `json:"patient_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	EmergencyPhone string         `json:"emergency_phone"`
	DateOfBirth    string         `json:"date_of_birth"`
	Gender         string         `json:"gender"`
	MedicalHistory MedicalHistory `json:"medical_history"`
	Notes          string         `json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FullName renders the display name used in lists and calendar cells.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CreatePatientRequest is the request body for creating a patient.
type CreatePatientRequest struct {
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	EmergencyPhone string         `json:"emergency_phone"`
	DateOfBirth    string         `json:"date_of_birth"`
	Gender         string         `json:"gender"`
	MedicalHistory MedicalHistory `json:"medical_history"`
	Notes          string         `json:"notes"`
}

// Validate checks the request against the registration rules. Phone numbers
// are optional but must be well-formed when present.
func (r *CreatePatientRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrInvalidName
	}
	if !dateutil.IsValidDateString(r.DateOfBirth) || dateutil.IsFutureDate(r.DateOfBirth, now) {
		return ErrInvalidBirthDate
	}
	if r.Email != "" && !validate.Email(r.Email) {
		return ErrInvalidEmail
	}
	if r.Phone != "" && !validate.Phone(r.Phone) {
		return ErrInvalidPhone
	}
	if r.EmergencyPhone != "" && !validate.Phone(r.EmergencyPhone) {
		return ErrInvalidPhone
	}
	if err := r.MedicalHistory.Validate(DefaultFieldDefs); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHistory, err)
	}
	return nil
}

// UpdatePatientRequest mirrors the create request; all fields are replaced.
type UpdatePatientRequest CreatePatientRequest

// Validate applies the same rules as creation.
func (r *UpdatePatientRequest) Validate(now time.Time) error {
	return (*CreatePatientRequest)(r).Validate(now)
}

// ListFilter narrows patient listings.
type ListFilter struct {
	// Search matches case-insensitively against name, display ID, email
	// and phone.
	Search string
	Limit  int
}

// Matches implements the client-side search semantics over one record.
func (f ListFilter) Matches(p *Patient) bool {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{p.FullName(), p.PatientID, p.Email, p.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
