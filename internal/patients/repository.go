package patients

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage.
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, filter ListFilter) ([]*Patient, error)
	Update(ctx context.Context, id string, req *UpdatePatientRequest) (*Patient, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// InMemoryRepository keeps patients in memory. It backs tests and local
// development without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	seq      int

	// referenced marks patients that hold treatment records, so Delete can
	// simulate the FK restriction the database enforces.
	referenced map[string]bool
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients:   make(map[string]*Patient),
		referenced: make(map[string]bool),
	}
}

// MarkReferenced flags a patient as referenced by treatments.
func (r *InMemoryRepository) MarkReferenced(id string) {
	r.mu.Lock()
	r.referenced[id] = true
	r.mu.Unlock()
}

// Create stores a new patient, assigning both identifiers.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now().UTC()
	p := &Patient{
		ID:             uuid.NewString(),
		PatientID:      fmt.Sprintf("P-%04d", r.seq),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		EmergencyPhone: req.EmergencyPhone,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		MedicalHistory: req.MedicalHistory,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.patients[p.ID] = p
	return p, nil
}

// GetByID retrieves a patient by internal ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

// List returns patients matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update replaces the mutable fields of a patient.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.FirstName = req.FirstName
	p.LastName = req.LastName
	p.Email = req.Email
	p.Phone = req.Phone
	p.EmergencyPhone = req.EmergencyPhone
	p.DateOfBirth = req.DateOfBirth
	p.Gender = req.Gender
	p.MedicalHistory = req.MedicalHistory
	p.Notes = req.Notes
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Delete removes a patient unless treatments still reference it.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	if r.referenced[id] {
		return ErrPatientReferenced
	}
	delete(r.patients, id)
	return nil
}

// Count returns the total number of patients.
func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.patients)), nil
}
