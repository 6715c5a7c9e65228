package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the interface for reminder config storage.
type Repository interface {
	GetAll(ctx context.Context) ([]*Config, error)
	Get(ctx context.Context, t ReminderType) (*Config, error)
	Upsert(ctx context.Context, c *Config) (*Config, error)
}

// InMemoryRepository keeps configs in memory, pre-seeded with defaults.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[ReminderType]*Config
}

// NewInMemoryRepository creates a store seeded with the default rows.
func NewInMemoryRepository() *InMemoryRepository {
	items := make(map[ReminderType]*Config)
	for _, c := range DefaultConfigs() {
		items[c.Type] = c
	}
	return &InMemoryRepository{items: items}
}

// GetAll returns every config row in display order.
func (r *InMemoryRepository) GetAll(ctx context.Context) ([]*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Config, 0, len(Types))
	for _, t := range Types {
		if c, ok := r.items[t]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the config row for one schedule.
func (r *InMemoryRepository) Get(ctx context.Context, t ReminderType) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[t]
	if !ok {
		return nil, ErrConfigNotFound
	}
	return c, nil
}

// Upsert replaces the config row for the given schedule.
func (r *InMemoryRepository) Upsert(ctx context.Context, c *Config) (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	r.mu.Lock()
	r.items[c.Type] = c
	r.mu.Unlock()
	return c, nil
}

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores reminder configs in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("reminders: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const configColumns = `reminder_type, hours_before, is_enabled, subject, body, updated_at`

// GetAll returns every config row in display order.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]*Config, error) {
	query := `
		SELECT ` + configColumns + `
		FROM reminder_configs
		ORDER BY array_position(ARRAY['24_hour','day_of','custom'], reminder_type)
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reminders: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan failed: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns the config row for one schedule.
func (r *PostgresRepository) Get(ctx context.Context, t ReminderType) (*Config, error) {
	query := `SELECT ` + configColumns + ` FROM reminder_configs WHERE reminder_type = $1`
	c, err := scanConfig(r.db.QueryRow(ctx, query, t))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("reminders: select failed: %w", err)
	}
	return c, nil
}

// Upsert replaces the config row for the given schedule.
func (r *PostgresRepository) Upsert(ctx context.Context, c *Config) (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO reminder_configs (reminder_type, hours_before, is_enabled, subject, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (reminder_type) DO UPDATE
		SET hours_before = EXCLUDED.hours_before, is_enabled = EXCLUDED.is_enabled,
			subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = now()
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		c.Type, c.HoursBefore, c.IsEnabled, c.Subject, c.Body,
	).Scan(&c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("reminders: upsert failed: %w", err)
	}
	return c, nil
}

func scanConfig(row pgx.Row) (*Config, error) {
	var c Config
	if err := row.Scan(&c.Type, &c.HoursBefore, &c.IsEnabled, &c.Subject, &c.Body, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
