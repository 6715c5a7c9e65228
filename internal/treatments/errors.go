package treatments

import "errors"

var (
	// ErrTreatmentNotFound is returned when no treatment matches the ID.
	ErrTreatmentNotFound = errors.New("treatments: treatment not found")
	// ErrMissingPatient is returned when the patient reference is absent
	// or points at a nonexistent patient.
	ErrMissingPatient = errors.New("treatments: patient_id is required")
	// ErrNoLineItems is returned when a treatment carries no procedures.
	ErrNoLineItems = errors.New("treatments: at least one procedure is required")
	// ErrInvalidDate is returned for unparseable treatment dates.
	ErrInvalidDate = errors.New("treatments: treatment_date must be YYYY-MM-DD")
	// ErrInvalidPaymentStatus is returned for unknown payment statuses.
	ErrInvalidPaymentStatus = errors.New("treatments: payment_status must be pending, partial or paid")
	// ErrMissingProcedure is returned when a line item has no procedure
	// reference.
	ErrMissingProcedure = errors.New("treatments: line item procedure_id is required")
	// ErrLineItemNotFound is returned when a line-item mutation targets a
	// procedure the treatment does not carry.
	ErrLineItemNotFound = errors.New("treatments: line item not found")
)
