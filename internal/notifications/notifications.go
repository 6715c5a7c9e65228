// Package notifications backs the header bell: a list of short staff-facing
// messages with read state. The server is authoritative; clients may render
// optimistically but reconcile against these endpoints.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotificationNotFound is returned when no notification matches the ID.
var ErrNotificationNotFound = errors.New("notifications: notification not found")

// Notification is one bell entry.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the interface for notification storage.
type Repository interface {
	Add(ctx context.Context, n *Notification) error
	List(ctx context.Context, unreadOnly bool, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, ids []string) (int, error)
	MarkAllRead(ctx context.Context) (int, error)
}

// InMemoryRepository keeps notifications in memory for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Notification
}

// NewInMemoryRepository creates an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Notification)}
}

// Add stores a notification, assigning an ID and timestamp when absent.
func (r *InMemoryRepository) Add(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.items[n.ID] = n
	r.mu.Unlock()
	return nil
}

// List returns notifications, newest first.
func (r *InMemoryRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Notification
	for _, n := range r.items {
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UnreadCount returns the badge number.
func (r *InMemoryRepository) UnreadCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, item := range r.items {
		if !item.IsRead {
			n++
		}
	}
	return n, nil
}

// MarkRead flags the given notifications as read, reporting how many
// actually changed.
func (r *InMemoryRepository) MarkRead(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for _, id := range ids {
		if n, ok := r.items[id]; ok && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

// MarkAllRead flags everything as read.
func (r *InMemoryRepository) MarkAllRead(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for _, n := range r.items {
		if !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores notifications in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add stores a notification.
func (r *PostgresRepository) Add(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	query := `
		INSERT INTO notifications (id, title, message, kind, is_read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, n.ID, n.Title, n.Message, n.Kind, n.IsRead).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("notifications: insert failed: %w", err)
	}
	return nil
}

// List returns notifications, newest first.
func (r *PostgresRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, title, message, kind, is_read, created_at
		FROM notifications
		WHERE NOT $1 OR NOT is_read
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Kind, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifications: scan failed: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// UnreadCount returns the badge number.
func (r *PostgresRepository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("notifications: count failed: %w", err)
	}
	return n, nil
}

// MarkRead flags the given notifications as read.
func (r *PostgresRepository) MarkRead(ctx context.Context, ids []string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ANY($1) AND NOT is_read`, ids)
	if err != nil {
		return 0, fmt.Errorf("notifications: mark read failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkAllRead flags everything as read.
func (r *PostgresRepository) MarkAllRead(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`)
	if err != nil {
		return 0, fmt.Errorf("notifications: mark all read failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
