package appointments

import (
	"strings"
	"time"

	"github.com/smilepoint/clinic-api/internal/dateutil"
)

// Status enumerates the appointment lifecycle states.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// allowedTransitions encodes the status gate: scheduled fans out, cancelled
// and no-show can be rescheduled, completed is terminal. Self-transitions
// are not listed and therefore rejected.
var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCancelled: {StatusScheduled},
	StatusNoShow:    {StatusScheduled},
	StatusCompleted: {},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment is a scheduled visit for one patient. Date and time stay as
// canonical strings because every consumer groups and sorts on the exact
// string forms.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MinuteOfDay returns the appointment start as minutes since midnight, or
// -1 for malformed times.
func (a *Appointment) MinuteOfDay() int {
	return dateutil.MinuteOfDay(a.AppointmentTime)
}

// CreateAppointmentRequest is the request body for creating an appointment.
type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// Validate checks the request fields.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if !dateutil.IsValidDateString(r.AppointmentDate) {
		return ErrInvalidDate
	}
	if !dateutil.IsValidTimeString(r.AppointmentTime) {
		return ErrInvalidTime
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// UpdateAppointmentRequest replaces the schedulable fields. Status changes
// go through the dedicated transition endpoint instead.
type UpdateAppointmentRequest struct {
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// Validate checks the request fields.
func (r *UpdateAppointmentRequest) Validate() error {
	if !dateutil.IsValidDateString(r.AppointmentDate) {
		return ErrInvalidDate
	}
	if !dateutil.IsValidTimeString(r.AppointmentTime) {
		return ErrInvalidTime
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// ListFilter narrows appointment listings to a date window and status.
type ListFilter struct {
	StartDate string
	EndDate   string
	Status    Status
	Limit     int
}

// MaxListLimit caps every window fetch.
const MaxListLimit = 100

// Normalize applies the fetch cap and default limit.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
