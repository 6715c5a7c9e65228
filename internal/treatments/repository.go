package treatments

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smilepoint/clinic-api/internal/procedures"
	"github.com/smilepoint/clinic-api/internal/validate"
)

// Catalog resolves procedure references when line items are stored. The
// procedures repository satisfies it.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*procedures.Procedure, error)
}

// usageRecorder is implemented by catalogs that track line-item usage for
// the popular ranking.
type usageRecorder interface {
	RecordUsage(id string, n int64)
}

// Repository defines the interface for treatment storage.
type Repository interface {
	Create(ctx context.Context, req *UpsertTreatmentRequest) (*Treatment, error)
	GetByID(ctx context.Context, id string) (*Treatment, error)
	List(ctx context.Context, filter ListFilter) ([]*Treatment, error)
	Update(ctx context.Context, id string, req *UpsertTreatmentRequest) (*Treatment, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}

// InMemoryRepository keeps treatments in memory for tests and local runs.
type InMemoryRepository struct {
	mu      sync.RWMutex
	items   map[string]*Treatment
	order   []string
	catalog Catalog
}

// NewInMemoryRepository creates an empty in-memory store. The catalog seeds
// line-item costs and names; it may be nil, in which case line items must
// carry their own cost_per_unit.
func NewInMemoryRepository(catalog Catalog) *InMemoryRepository {
	return &InMemoryRepository{
		items:   make(map[string]*Treatment),
		catalog: catalog,
	}
}

// buildItems resolves request rows into stored line items: duplicates are
// merged by procedure, quantities clamped, and missing unit costs seeded
// from the catalog default.
func (r *InMemoryRepository) buildItems(ctx context.Context, rows []LineItemRequest) ([]LineItem, error) {
	merged := mergeLineRequests(rows)
	items := make([]LineItem, 0, len(merged))
	for _, row := range merged {
		li := LineItem{
			ID:          uuid.NewString(),
			ProcedureID: row.ProcedureID,
			Quantity:    row.Quantity,
			ToothNumber: row.ToothNumber,
			Notes:       row.Notes,
		}
		if row.CostPerUnit != nil {
			li.CostPerUnit = validate.ClampCostFloat(*row.CostPerUnit)
		}
		if r.catalog != nil {
			p, err := r.catalog.GetByID(ctx, row.ProcedureID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrMissingProcedure, row.ProcedureID)
			}
			li.ProcedureName = p.Name
			if row.CostPerUnit == nil {
				li.CostPerUnit = validate.ClampCostFloat(p.DefaultCost)
			}
		}
		items = append(items, li)
	}
	return items, nil
}

func (r *InMemoryRepository) recordUsage(items []LineItem) {
	rec, ok := r.catalog.(usageRecorder)
	if !ok {
		return
	}
	for _, li := range items {
		rec.RecordUsage(li.ProcedureID, int64(li.Quantity))
	}
}

// Create stores a new treatment with its line items.
func (r *InMemoryRepository) Create(ctx context.Context, req *UpsertTreatmentRequest) (*Treatment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items, err := r.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Treatment{
		ID:            uuid.NewString(),
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		TreatmentDate: req.TreatmentDate,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	t.Recompute()

	r.mu.Lock()
	r.items[t.ID] = t
	r.order = append(r.order, t.ID)
	r.mu.Unlock()
	r.recordUsage(items)
	return t, nil
}

// GetByID retrieves a treatment.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, ErrTreatmentNotFound
	}
	return t, nil
}

// List returns treatments matching the filter, newest treatment date first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Treatment
	for _, id := range r.order {
		if t := r.items[id]; filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TreatmentDate > out[j].TreatmentDate })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update replaces a treatment's fields and line items, recomputing the total.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpsertTreatmentRequest) (*Treatment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items, err := r.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, ErrTreatmentNotFound
	}
	t.PatientID = req.PatientID
	t.AppointmentID = req.AppointmentID
	t.TreatmentDate = req.TreatmentDate
	t.PaymentStatus = req.PaymentStatus
	t.Notes = req.Notes
	t.Items = items
	t.UpdatedAt = time.Now().UTC()
	t.Recompute()
	return t, nil
}

// Delete removes a treatment.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrTreatmentNotFound
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Stats aggregates volume and revenue across all treatments.
func (r *InMemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &Stats{}
	for _, t := range r.items {
		s.TotalTreatments++
		s.TotalRevenue += t.TotalCost
		switch t.PaymentStatus {
		case PaymentPaid:
			s.PaidRevenue += t.TotalCost
		case PaymentPartial:
			s.PartialRevenue += t.TotalCost
		case PaymentPending:
			s.PendingRevenue += t.TotalCost
		}
	}
	return s, nil
}
