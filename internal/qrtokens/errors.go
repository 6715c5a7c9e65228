package qrtokens

import "errors"

var (
	// ErrTokenNotFound is returned when no token matches the ID or value.
	ErrTokenNotFound = errors.New("qrtokens: token not found")
	// ErrTokenExpired is returned when consuming past expires_at.
	ErrTokenExpired = errors.New("qrtokens: token has expired")
	// ErrTokenUsed is returned when a single-use token is consumed twice.
	ErrTokenUsed = errors.New("qrtokens: token has already been used")
	// ErrInvalidType is returned for unknown token variants.
	ErrInvalidType = errors.New("qrtokens: qr_type must be generic, reusable or single_use")
	// ErrInvalidExpiry is returned when an expiring variant has no usable
	// expiry.
	ErrInvalidExpiry = errors.New("qrtokens: expires_in_hours must be positive")
)
