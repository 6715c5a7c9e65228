package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when no appointment matches the ID.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	// ErrInvalidDate is returned for malformed appointment dates.
	ErrInvalidDate = errors.New("appointments: appointment_date must be YYYY-MM-DD")
	// ErrInvalidTime is returned for malformed appointment times.
	ErrInvalidTime = errors.New("appointments: appointment_time must be HH:mm")
	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("appointments: duration_minutes must be positive")
	// ErrInvalidStatus is returned for statuses outside the known set.
	ErrInvalidStatus = errors.New("appointments: unknown status")
	// ErrInvalidTransition is returned when a status change violates the
	// transition rules.
	ErrInvalidTransition = errors.New("appointments: status transition not allowed")
	// ErrMissingPatient is returned when no patient reference is supplied.
	ErrMissingPatient = errors.New("appointments: patient_id is required")
)
