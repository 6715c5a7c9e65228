package procedures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for the procedure catalog.
type Repository interface {
	Create(ctx context.Context, req *UpsertProcedureRequest) (*Procedure, error)
	GetByID(ctx context.Context, id string) (*Procedure, error)
	List(ctx context.Context, filter ListFilter) ([]*Procedure, error)
	Popular(ctx context.Context, limit int) ([]*PopularProcedure, error)
	Update(ctx context.Context, id string, req *UpsertProcedureRequest) (*Procedure, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps the catalog in memory for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Procedure
	usage map[string]int64
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Procedure),
		usage: make(map[string]int64),
	}
}

// RecordUsage bumps the usage counter consulted by Popular; the treatments
// package calls this when a line item lands.
func (r *InMemoryRepository) RecordUsage(id string, n int64) {
	r.mu.Lock()
	r.usage[id] += n
	r.mu.Unlock()
}

// Create stores a new catalog entry.
func (r *InMemoryRepository) Create(ctx context.Context, req *UpsertProcedureRequest) (*Procedure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Procedure{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		DefaultCost:       req.DefaultCost,
		EstimatedDuration: req.EstimatedDuration,
		IsActive:          req.Active(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()
	return p, nil
}

// GetByID retrieves a catalog entry.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrProcedureNotFound
	}
	return p, nil
}

// List returns catalog entries matching the filter, sorted by name.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Procedure, 0, len(r.items))
	for _, p := range r.items {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Popular returns catalog entries ordered by line-item usage.
func (r *InMemoryRepository) Popular(ctx context.Context, limit int) ([]*PopularProcedure, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*PopularProcedure, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, &PopularProcedure{Procedure: *p, UsageCount: r.usage[p.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update replaces a catalog entry's fields.
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpsertProcedureRequest) (*Procedure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrProcedureNotFound
	}
	p.Name = req.Name
	p.Description = req.Description
	p.DefaultCost = req.DefaultCost
	p.EstimatedDuration = req.EstimatedDuration
	p.IsActive = req.Active()
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Delete removes a catalog entry unless treatments reference it.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrProcedureNotFound
	}
	if r.usage[id] > 0 {
		return ErrProcedureReferenced
	}
	delete(r.items, id)
	return nil
}
