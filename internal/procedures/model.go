package procedures

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrProcedureNotFound is returned when no procedure matches the ID.
	ErrProcedureNotFound = errors.New("procedures: procedure not found")
	// ErrProcedureReferenced is returned when deletion is blocked by
	// existing treatment line items.
	ErrProcedureReferenced = errors.New("procedures: procedure is referenced by treatments")
	// ErrInvalidName is returned when the catalog name is missing.
	ErrInvalidName = errors.New("procedures: name is required")
	// ErrInvalidCost is returned for negative default costs.
	ErrInvalidCost = errors.New("procedures: default_cost must be non-negative")
	// ErrInvalidDuration is returned for non-positive estimated durations.
	ErrInvalidDuration = errors.New("procedures: estimated_duration must be positive")
)

// Procedure is a catalog entry. Inactive procedures are excluded from
// new-treatment selection but preserved in historical treatment records.
type Procedure struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	DefaultCost       float64   `json:"default_cost"`
	EstimatedDuration int       `json:"estimated_duration"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PopularProcedure pairs a catalog entry with its usage count across
// treatment line items.
type PopularProcedure struct {
	Procedure
	UsageCount int64 `json:"usage_count"`
}

// UpsertProcedureRequest is the body for creating or updating a procedure.
type UpsertProcedureRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	DefaultCost       float64 `json:"default_cost"`
	EstimatedDuration int     `json:"estimated_duration"`
	IsActive          *bool   `json:"is_active"`
}

// Validate checks the request fields. IsActive defaults to true when absent.
func (r *UpsertProcedureRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.DefaultCost < 0 {
		return ErrInvalidCost
	}
	if r.EstimatedDuration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Active resolves the optional is_active flag.
func (r *UpsertProcedureRequest) Active() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search   string
	IsActive *bool
	Limit    int
}

// Matches applies the filter to one catalog entry.
func (f ListFilter) Matches(p *Procedure) bool {
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}
