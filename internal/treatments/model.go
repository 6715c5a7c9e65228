package treatments

import (
	"strings"
	"time"

	"github.com/smilepoint/clinic-api/internal/dateutil"
	"github.com/smilepoint/clinic-api/internal/validate"
)

// PaymentStatus tracks how much of a treatment has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a recognized payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// LineItem is one procedure performed as part of a treatment. CostPerUnit
// is captured from the catalog default at insertion and edited
// independently afterwards; it is never re-synced with the catalog.
type LineItem struct {
	ID            string  `json:"id,omitempty"`
	ProcedureID   string  `json:"procedure_id"`
	ProcedureName string  `json:"procedure_name,omitempty"`
	Quantity      int     `json:"quantity"`
	CostPerUnit   float64 `json:"cost_per_unit"`
	ToothNumber   string  `json:"tooth_number,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// Total is the line contribution: quantity times unit cost.
func (li LineItem) Total() float64 {
	return float64(li.Quantity) * li.CostPerUnit
}

// Treatment is a visit record with its ordered procedure line items.
// TotalCost is always derived from the items, never accepted from a client.
type Treatment struct {
	ID            string        `json:"id"`
	PatientID     string        `json:"patient_id"`
	PatientName   string        `json:"patient_name,omitempty"`
	AppointmentID string        `json:"appointment_id,omitempty"`
	TreatmentDate string        `json:"treatment_date"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         string        `json:"notes,omitempty"`
	Items         []LineItem    `json:"procedures"`
	TotalCost     float64       `json:"total_cost"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Recompute rewrites TotalCost from the line items. Every mutation path
// calls this so the stored total can never drift from its parts.
func (t *Treatment) Recompute() {
	total := 0.0
	for _, li := range t.Items {
		total += li.Total()
	}
	t.TotalCost = total
}

// AddProcedure appends a line item for the given catalog entry, or bumps
// the quantity when the procedure is already on the treatment. defaultCost
// seeds cost_per_unit for new lines only.
func (t *Treatment) AddProcedure(procedureID, procedureName string, defaultCost float64) {
	for i := range t.Items {
		if t.Items[i].ProcedureID == procedureID {
			t.Items[i].Quantity++
			t.Recompute()
			return
		}
	}
	t.Items = append(t.Items, LineItem{
		ProcedureID:   procedureID,
		ProcedureName: procedureName,
		Quantity:      1,
		CostPerUnit:   validate.ClampCostFloat(defaultCost),
	})
	t.Recompute()
}

// RemoveProcedure drops the line item for the given procedure.
func (t *Treatment) RemoveProcedure(procedureID string) error {
	for i := range t.Items {
		if t.Items[i].ProcedureID == procedureID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			t.Recompute()
			return nil
		}
	}
	return ErrLineItemNotFound
}

// SetQuantity updates a line's quantity, clamping anything below 1 up to 1.
func (t *Treatment) SetQuantity(procedureID string, quantity int) error {
	for i := range t.Items {
		if t.Items[i].ProcedureID == procedureID {
			t.Items[i].Quantity = validate.ClampQuantityInt(quantity)
			t.Recompute()
			return nil
		}
	}
	return ErrLineItemNotFound
}

// SetCost updates a line's unit cost, clamping negatives and NaN to 0.
func (t *Treatment) SetCost(procedureID string, cost float64) error {
	for i := range t.Items {
		if t.Items[i].ProcedureID == procedureID {
			t.Items[i].CostPerUnit = validate.ClampCostFloat(cost)
			t.Recompute()
			return nil
		}
	}
	return ErrLineItemNotFound
}

// LineItemRequest is one procedure row in a create/update body.
type LineItemRequest struct {
	ProcedureID string   `json:"procedure_id"`
	Quantity    int      `json:"quantity"`
	CostPerUnit *float64 `json:"cost_per_unit"`
	ToothNumber string   `json:"tooth_number"`
	Notes       string   `json:"notes"`
}

// UpsertTreatmentRequest is the body for creating or updating a treatment.
// A client-supplied total is ignored; the server recomputes it.
type UpsertTreatmentRequest struct {
	PatientID     string            `json:"patient_id"`
	AppointmentID string            `json:"appointment_id"`
	TreatmentDate string            `json:"treatment_date"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Notes         string            `json:"notes"`
	Items         []LineItemRequest `json:"procedures"`
}

// Validate checks the request. Payment status defaults to pending when
// absent; quantity and cost are clamped, not rejected.
func (r *UpsertTreatmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if !dateutil.IsValidDateString(r.TreatmentDate) {
		return ErrInvalidDate
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
	if !r.PaymentStatus.Valid() {
		return ErrInvalidPaymentStatus
	}
	if len(r.Items) == 0 {
		return ErrNoLineItems
	}
	for _, li := range r.Items {
		if strings.TrimSpace(li.ProcedureID) == "" {
			return ErrMissingProcedure
		}
	}
	return nil
}

// mergeLineRequests collapses duplicate procedure rows into one line each,
// summing clamped quantities, and preserves first-seen order.
func mergeLineRequests(rows []LineItemRequest) []LineItemRequest {
	var out []LineItemRequest
	index := make(map[string]int)
	for _, row := range rows {
		if i, ok := index[row.ProcedureID]; ok {
			out[i].Quantity += validate.ClampQuantityInt(row.Quantity)
			continue
		}
		row.Quantity = validate.ClampQuantityInt(row.Quantity)
		index[row.ProcedureID] = len(out)
		out = append(out, row)
	}
	return out
}

// ListFilter narrows treatment listings.
type ListFilter struct {
	StartDate     string
	EndDate       string
	PaymentStatus PaymentStatus
	PatientID     string
	Limit         int
}

// Matches applies the filter to one treatment.
func (f ListFilter) Matches(t *Treatment) bool {
	if f.StartDate != "" && t.TreatmentDate < f.StartDate {
		return false
	}
	if f.EndDate != "" && t.TreatmentDate > f.EndDate {
		return false
	}
	if f.PaymentStatus != "" && t.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.PatientID != "" && t.PatientID != f.PatientID {
		return false
	}
	return true
}

// Stats summarizes treatment volume and revenue by payment state.
type Stats struct {
	TotalTreatments int     `json:"total_treatments"`
	TotalRevenue    float64 `json:"total_revenue"`
	PaidRevenue     float64 `json:"paid_revenue"`
	PartialRevenue  float64 `json:"partial_revenue"`
	PendingRevenue  float64 `json:"pending_revenue"`
}
