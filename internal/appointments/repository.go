package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error)
	ChangeStatus(ctx context.Context, id string, to Status) (*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps appointments in memory for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Appointment
	order []string // insertion order, matches fetch order semantics
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Appointment)}
}

// Create stores a new appointment in scheduled state.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &Appointment{
		ID:              uuid.NewString(),
		PatientID:       req.PatientID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.items[a.ID] = a
	r.order = append(r.order, a.ID)
	r.mu.Unlock()
	return a, nil
}

// GetByID retrieves an appointment by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

// List returns appointments inside the filter window in date order.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Appointment, 0)
	for _, id := range r.order {
		a := r.items[id]
		if filter.StartDate != "" && a.AppointmentDate < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && a.AppointmentDate > filter.EndDate {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update replaces the schedulable fields.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.AppointmentDate = req.AppointmentDate
	a.AppointmentTime = req.AppointmentTime
	a.DurationMinutes = req.DurationMinutes
	a.Notes = req.Notes
	a.UpdatedAt = time.Now().UTC()
	return a, nil
}

// ChangeStatus applies the transition gate before persisting.
func (r *InMemoryRepository) ChangeStatus(ctx context.Context, id string, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if !CanTransition(a.Status, to) {
		return nil, ErrInvalidTransition
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return a, nil
}

// Delete removes an appointment.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrAppointmentNotFound
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
