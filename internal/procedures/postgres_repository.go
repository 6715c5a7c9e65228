package procedures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores the catalog in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("procedures: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const procColumns = `id, name, description, default_cost, estimated_duration, is_active, created_at, updated_at`

// Create inserts a new catalog entry.
func (r *PostgresRepository) Create(ctx context.Context, req *UpsertProcedureRequest) (*Procedure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO procedures (id, name, description, default_cost, estimated_duration, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id, req.Name, req.Description, req.DefaultCost, req.EstimatedDuration, req.Active(),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("procedures: insert failed: %w", err)
	}

	return &Procedure{
		ID:                id.String(),
		Name:              req.Name,
		Description:       req.Description,
		DefaultCost:       req.DefaultCost,
		EstimatedDuration: req.EstimatedDuration,
		IsActive:          req.Active(),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

// GetByID fetches a catalog entry.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Procedure, error) {
	query := `SELECT ` + procColumns + ` FROM procedures WHERE id = $1`
	p, err := scanProcedure(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProcedureNotFound
		}
		return nil, fmt.Errorf("procedures: select failed: %w", err)
	}
	return p, nil
}

// List returns catalog entries matching the filter.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Procedure, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	// A nil IsActive means both states; encode as a tri-state text arg.
	active := ""
	if filter.IsActive != nil {
		if *filter.IsActive {
			active = "t"
		} else {
			active = "f"
		}
	}
	query := `
		SELECT ` + procColumns + `
		FROM procedures
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
			AND ($2 = '' OR is_active = ($2 = 't'))
		ORDER BY name
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, filter.Search, active, limit)
	if err != nil {
		return nil, fmt.Errorf("procedures: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("procedures: scan failed: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Popular returns catalog entries ordered by treatment line-item usage.
func (r *PostgresRepository) Popular(ctx context.Context, limit int) ([]*PopularProcedure, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
		SELECT p.id, p.name, p.description, p.default_cost, p.estimated_duration,
			p.is_active, p.created_at, p.updated_at,
			COALESCE(SUM(tp.quantity), 0) AS usage_count
		FROM procedures p
		LEFT JOIN treatment_procedures tp ON tp.procedure_id = p.id
		GROUP BY p.id
		ORDER BY usage_count DESC, p.name
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("procedures: popular failed: %w", err)
	}
	defer rows.Close()

	var out []*PopularProcedure
	for rows.Next() {
		var p PopularProcedure
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.DefaultCost, &p.EstimatedDuration,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.UsageCount,
		); err != nil {
			return nil, fmt.Errorf("procedures: scan popular failed: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Update replaces a catalog entry's fields.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpsertProcedureRequest) (*Procedure, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE procedures
		SET name = $2, description = $3, default_cost = $4, estimated_duration = $5,
			is_active = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + procColumns
	p, err := scanProcedure(r.db.QueryRow(ctx, query,
		id, req.Name, req.Description, req.DefaultCost, req.EstimatedDuration, req.Active(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProcedureNotFound
		}
		return nil, fmt.Errorf("procedures: update failed: %w", err)
	}
	return p, nil
}

// Delete removes a catalog entry. A foreign key restriction from treatment
// line items maps to ErrProcedureReferenced.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM procedures WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrProcedureReferenced
		}
		return fmt.Errorf("procedures: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProcedureNotFound
	}
	return nil
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.DefaultCost, &p.EstimatedDuration,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
