package patients

import "errors"

var (
	// ErrPatientNotFound is returned when no patient matches the given ID.
	ErrPatientNotFound = errors.New("patients: patient not found")
	// ErrPatientReferenced is returned when a delete is blocked by existing
	// treatment records.
	ErrPatientReferenced = errors.New("patients: patient is referenced by treatments")
	// ErrInvalidName is returned when first or last name is missing.
	ErrInvalidName = errors.New("patients: first and last name are required")
	// ErrInvalidBirthDate is returned when the birth date is malformed or in
	// the future.
	ErrInvalidBirthDate = errors.New("patients: birth date must be a valid past date")
	// ErrInvalidEmail is returned when a provided email is malformed.
	ErrInvalidEmail = errors.New("patients: invalid email address")
	// ErrInvalidPhone is returned when a provided phone fails the local format.
	ErrInvalidPhone = errors.New("patients: phone must match 09XXXXXXXXX")
	// ErrInvalidHistory wraps medical history validation failures.
	ErrInvalidHistory = errors.New("patients: invalid medical history")
)
