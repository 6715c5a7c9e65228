// Package drafts persists in-progress registration forms so a patient can
// resume after a reload. Storage sits behind a small key-value interface;
// production uses Redis, tests inject an in-memory fake.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDraftNotFound is returned when no draft exists for the key.
	ErrDraftNotFound = errors.New("drafts: draft not found")
	// ErrDraftExpired is returned when a stored draft is too old to restore.
	ErrDraftExpired = errors.New("drafts: draft has expired")
)

// DefaultTTL is how long a saved draft stays restorable. The age gate is
// enforced on read as well, so a store that outlives its TTL still cannot
// leak stale form state.
const DefaultTTL = 24 * time.Hour

// KV is the storage capability drafts need.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// ErrKeyMissing is what KV implementations return for absent keys.
var ErrKeyMissing = errors.New("drafts: key missing")

// Draft is a timestamped snapshot of form progress.
type Draft struct {
	Form           map[string]any  `json:"form"`
	MedicalHistory json.RawMessage `json:"medical_history,omitempty"`
	Step           int             `json:"step"`
	SavedAt        time.Time       `json:"saved_at"`
}

// Store saves and restores drafts keyed by registration token.
type Store struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a draft store. A zero ttl means DefaultTTL.
func NewStore(kv KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl, now: time.Now}
}

// Key builds the storage key for a token; the empty token maps to the
// shared generic registration context.
func Key(token string) string {
	if token == "" {
		token = "generic"
	}
	return "registration_draft:" + token
}

// Save persists the draft, stamping it with the current time.
func (s *Store) Save(ctx context.Context, token string, d *Draft) error {
	d.SavedAt = s.now().UTC()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("drafts: marshal failed: %w", err)
	}
	if err := s.kv.Set(ctx, Key(token), string(payload), s.ttl); err != nil {
		return fmt.Errorf("drafts: save failed: %w", err)
	}
	return nil
}

// Restore loads the draft if one exists and is younger than the TTL.
// Drafts past the age gate are removed and reported as expired.
func (s *Store) Restore(ctx context.Context, token string) (*Draft, error) {
	raw, err := s.kv.Get(ctx, Key(token))
	if err != nil {
		if errors.Is(err, ErrKeyMissing) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("drafts: load failed: %w", err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("drafts: corrupt draft: %w", err)
	}
	if s.now().UTC().Sub(d.SavedAt) >= s.ttl {
		_ = s.kv.Remove(ctx, Key(token))
		return nil, ErrDraftExpired
	}
	return &d, nil
}

// Discard deletes the draft, typically after a successful submission.
func (s *Store) Discard(ctx context.Context, token string) error {
	if err := s.kv.Remove(ctx, Key(token)); err != nil {
		return fmt.Errorf("drafts: discard failed: %w", err)
	}
	return nil
}
