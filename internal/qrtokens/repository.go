package qrtokens

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for token storage.
type Repository interface {
	Create(ctx context.Context, t *QRToken) error
	GetByID(ctx context.Context, id string) (*QRToken, error)
	GetByToken(ctx context.Context, token string) (*QRToken, error)
	List(ctx context.Context) ([]*QRToken, error)
	Consume(ctx context.Context, token string, now time.Time) (*QRToken, error)
	Release(ctx context.Context, token string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Service issues tokens and owns their lifecycle rules.
type Service struct {
	repo    Repository
	baseURL string
	now     func() time.Time
}

// NewService creates a token service. baseURL is the public origin the
// registration links point at.
func NewService(repo Repository, baseURL string) *Service {
	return &Service{repo: repo, baseURL: baseURL, now: time.Now}
}

// Generate mints a new token of the requested variant.
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*QRToken, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &QRToken{
		ID:        uuid.NewString(),
		Token:     NewToken(),
		Type:      req.Type,
		Note:      req.Note,
		CreatedAt: now,
	}
	t.RegistrationURL = RegistrationURL(s.baseURL, t.Token)
	if req.Type != TypeGeneric {
		expires := now.Add(time.Duration(req.ExpiresInHours) * time.Hour)
		t.ExpiresAt = &expires
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Consume marks one use of the token identified by its value.
func (s *Service) Consume(ctx context.Context, token string) (*QRToken, error) {
	return s.repo.Consume(ctx, token, s.now().UTC())
}

// Release gives back one use, undoing a Consume whose follow-up work
// failed. The token becomes consumable again.
func (s *Service) Release(ctx context.Context, token string) error {
	return s.repo.Release(ctx, token)
}

// Check fetches a token by value and verifies it is still consumable
// without recording a use.
func (s *Service) Check(ctx context.Context, token string) (*QRToken, error) {
	t, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now().UTC()) {
		return nil, ErrTokenExpired
	}
	if t.Type == TypeSingleUse && t.Used {
		return nil, ErrTokenUsed
	}
	return t, nil
}

// CleanupExpired removes all tokens past their expiry.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

// InMemoryRepository keeps tokens in memory for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*QRToken
}

// NewInMemoryRepository creates an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*QRToken)}
}

// Create stores a token.
func (r *InMemoryRepository) Create(ctx context.Context, t *QRToken) error {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a token by its row ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*QRToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return t, nil
}

// GetByToken retrieves a token by its value.
func (r *InMemoryRepository) GetByToken(ctx context.Context, token string) (*QRToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.items {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, ErrTokenNotFound
}

// List returns all tokens, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*QRToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*QRToken, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Consume records one use. A single-use token flips used exactly once;
// a second attempt fails and records nothing.
func (r *InMemoryRepository) Consume(ctx context.Context, token string, now time.Time) (*QRToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.Token != token {
			continue
		}
		if t.Expired(now) {
			return nil, ErrTokenExpired
		}
		switch t.Type {
		case TypeSingleUse:
			if t.Used {
				return nil, ErrTokenUsed
			}
			t.Used = true
			t.UsageCount = 1
		default:
			t.UsageCount++
		}
		return t, nil
	}
	return nil, ErrTokenNotFound
}

// Release undoes one recorded use.
func (r *InMemoryRepository) Release(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.Token != token {
			continue
		}
		if t.Type == TypeSingleUse {
			t.Used = false
		}
		if t.UsageCount > 0 {
			t.UsageCount--
		}
		return nil
	}
	return ErrTokenNotFound
}

// Delete removes a token.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrTokenNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteExpired removes all tokens past expiry and reports how many.
func (r *InMemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.items {
		if t.Expired(now) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
