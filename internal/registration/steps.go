// Package registration implements the multi-step patient self-registration
// flow behind QR tokens: step-gated validation, draft persistence and
// final submission.
package registration

import (
	"strings"
	"time"

	"github.com/smilepoint/clinic-api/internal/dateutil"
	"github.com/smilepoint/clinic-api/internal/patients"
	"github.com/smilepoint/clinic-api/internal/validate"
)

// Steps of the registration wizard.
const (
	StepPersonal = 1
	StepContact  = 2
	StepMedical  = 3
)

// Form is the registration payload accumulated across steps.
type Form struct {
	FirstName      string                  `json:"first_name"`
	LastName       string                  `json:"last_name"`
	DateOfBirth    string                  `json:"date_of_birth"`
	Gender         string                  `json:"gender"`
	Email          string                  `json:"email"`
	Phone          string                  `json:"phone"`
	EmergencyPhone string                  `json:"emergency_phone"`
	MedicalHistory patients.MedicalHistory `json:"medical_history"`
	Notes          string                  `json:"notes"`
}

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

// ValidateStep checks the subset of fields gating the given step. The
// mobile flow (token-based self-registration) additionally requires an
// email at the contact step, since it gates access to the medical step.
func ValidateStep(step int, form *Form, mobile bool, now time.Time) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepPersonal:
		if strings.TrimSpace(form.FirstName) == "" {
			errs["first_name"] = "first name is required"
		}
		if strings.TrimSpace(form.LastName) == "" {
			errs["last_name"] = "last name is required"
		}
		if !dateutil.IsValidDateString(form.DateOfBirth) {
			errs["date_of_birth"] = "birth date must be YYYY-MM-DD"
		} else if dateutil.IsFutureDate(form.DateOfBirth, now) {
			errs["date_of_birth"] = "birth date cannot be in the future"
		}
	case StepContact:
		if form.Phone != "" && !validate.Phone(form.Phone) {
			errs["phone"] = "phone must be 11 digits starting with 09"
		}
		if form.EmergencyPhone != "" && !validate.Phone(form.EmergencyPhone) {
			errs["emergency_phone"] = "phone must be 11 digits starting with 09"
		}
		if mobile && strings.TrimSpace(form.Email) == "" {
			errs["email"] = "email is required"
		}
		if form.Email != "" && !validate.Email(form.Email) {
			errs["email"] = "email is not valid"
		}
	case StepMedical:
		// No blocking validation; the history payload is checked as a
		// whole at submission.
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateAll re-runs every step gate, as the submission endpoint must not
// trust that the client walked the steps in order.
func ValidateAll(form *Form, mobile bool, now time.Time) FieldErrors {
	errs := FieldErrors{}
	for step := StepPersonal; step <= StepMedical; step++ {
		for field, msg := range ValidateStep(step, form, mobile, now) {
			errs[field] = msg
		}
	}
	if err := form.MedicalHistory.Validate(patients.DefaultFieldDefs); err != nil {
		errs["medical_history"] = err.Error()
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ToCreateRequest maps the finished form onto the patient create payload.
func (f *Form) ToCreateRequest() *patients.CreatePatientRequest {
	return &patients.CreatePatientRequest{
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Email:          f.Email,
		Phone:          validate.NormalizePhone(f.Phone),
		EmergencyPhone: validate.NormalizePhone(f.EmergencyPhone),
		DateOfBirth:    f.DateOfBirth,
		Gender:         f.Gender,
		MedicalHistory: f.MedicalHistory,
		Notes:          f.Notes,
	}
}
