package treatments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smilepoint/clinic-api/internal/validate"
)

type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores treatments in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("treatments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a treatment and its line items in one transaction. The
// total is computed server-side after unit costs are resolved.
func (r *PostgresRepository) Create(ctx context.Context, req *UpsertTreatmentRequest) (*Treatment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("treatments: begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	items, err := resolveItems(ctx, tx, req.Items)
	if err != nil {
		return nil, err
	}

	t := &Treatment{
		ID:            uuid.NewString(),
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		TreatmentDate: req.TreatmentDate,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
		Items:         items,
	}
	t.Recompute()

	var appointmentID any
	if t.AppointmentID != "" {
		appointmentID = t.AppointmentID
	}
	query := `
		INSERT INTO treatments (id, patient_id, appointment_id, treatment_date, payment_status, notes, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		t.ID, t.PatientID, appointmentID, t.TreatmentDate, t.PaymentStatus, t.Notes, t.TotalCost,
	).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrMissingPatient
		}
		return nil, fmt.Errorf("treatments: insert failed: %w", err)
	}

	if err := insertItems(ctx, tx, t.ID, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("treatments: commit failed: %w", err)
	}
	return t, nil
}

// resolveItems merges request rows and fills procedure names and missing
// unit costs from the catalog, inside the caller's transaction.
func resolveItems(ctx context.Context, tx pgx.Tx, rows []LineItemRequest) ([]LineItem, error) {
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
		var defaultCost float64
		err := tx.QueryRow(ctx,
			`SELECT name, default_cost FROM procedures WHERE id = $1`, row.ProcedureID,
		).Scan(&li.ProcedureName, &defaultCost)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrMissingProcedure, row.ProcedureID)
			}
			return nil, fmt.Errorf("treatments: resolve procedure failed: %w", err)
		}
		if row.CostPerUnit != nil {
			li.CostPerUnit = validate.ClampCostFloat(*row.CostPerUnit)
		} else {
			li.CostPerUnit = validate.ClampCostFloat(defaultCost)
		}
		items = append(items, li)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, treatmentID string, items []LineItem) error {
	query := `
		INSERT INTO treatment_procedures (id, treatment_id, procedure_id, quantity, cost_per_unit, tooth_number, notes, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, li := range items {
		if _, err := tx.Exec(ctx, query,
			li.ID, treatmentID, li.ProcedureID, li.Quantity, li.CostPerUnit, li.ToothNumber, li.Notes, i,
		); err != nil {
			return fmt.Errorf("treatments: insert line item failed: %w", err)
		}
	}
	return nil
}

const treatmentColumns = `
	t.id, t.patient_id, p.first_name || ' ' || p.last_name,
	COALESCE(t.appointment_id::text, ''), to_char(t.treatment_date, 'YYYY-MM-DD'),
	t.payment_status, t.notes, t.total_cost, t.created_at, t.updated_at
`

// GetByID fetches a treatment with its line items.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Treatment, error) {
	query := `
		SELECT ` + treatmentColumns + `
		FROM treatments t
		JOIN patients p ON p.id = t.patient_id
		WHERE t.id = $1
	`
	t, err := scanTreatment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, fmt.Errorf("treatments: select failed: %w", err)
	}
	if err := r.loadItems(ctx, []*Treatment{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns treatments matching the filter, newest treatment date first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Treatment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + treatmentColumns + `
		FROM treatments t
		JOIN patients p ON p.id = t.patient_id
		WHERE ($1 = '' OR t.treatment_date >= $1::date)
			AND ($2 = '' OR t.treatment_date <= $2::date)
			AND ($3 = '' OR t.payment_status = $3)
			AND ($4 = '' OR t.patient_id::text = $4)
		ORDER BY t.treatment_date DESC, t.created_at DESC
		LIMIT $5
	`
	rows, err := r.db.Query(ctx, query,
		filter.StartDate, filter.EndDate, string(filter.PaymentStatus), filter.PatientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("treatments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("treatments: scan failed: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadItems attaches line items to the given treatments in one query.
func (r *PostgresRepository) loadItems(ctx context.Context, list []*Treatment) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*Treatment, len(list))
	for i, t := range list {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	query := `
		SELECT tp.id, tp.treatment_id, tp.procedure_id, pr.name, tp.quantity,
			tp.cost_per_unit, tp.tooth_number, tp.notes
		FROM treatment_procedures tp
		JOIN procedures pr ON pr.id = tp.procedure_id
		WHERE tp.treatment_id = ANY($1)
		ORDER BY tp.treatment_id, tp.position
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("treatments: load line items failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li LineItem
		var treatmentID string
		if err := rows.Scan(
			&li.ID, &treatmentID, &li.ProcedureID, &li.ProcedureName,
			&li.Quantity, &li.CostPerUnit, &li.ToothNumber, &li.Notes,
		); err != nil {
			return fmt.Errorf("treatments: scan line item failed: %w", err)
		}
		if t, ok := byID[treatmentID]; ok {
			t.Items = append(t.Items, li)
		}
	}
	return rows.Err()
}

// Update rewrites a treatment and replaces its line items in one
// transaction, recomputing the stored total.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpsertTreatmentRequest) (*Treatment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("treatments: begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	items, err := resolveItems(ctx, tx, req.Items)
	if err != nil {
		return nil, err
	}

	t := &Treatment{
		ID:            id,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		TreatmentDate: req.TreatmentDate,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
		Items:         items,
	}
	t.Recompute()

	var appointmentID any
	if t.AppointmentID != "" {
		appointmentID = t.AppointmentID
	}
	query := `
		UPDATE treatments
		SET patient_id = $2, appointment_id = $3, treatment_date = $4,
			payment_status = $5, notes = $6, total_cost = $7, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		id, t.PatientID, appointmentID, t.TreatmentDate, t.PaymentStatus, t.Notes, t.TotalCost,
	).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, fmt.Errorf("treatments: update failed: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM treatment_procedures WHERE treatment_id = $1`, id); err != nil {
		return nil, fmt.Errorf("treatments: clear line items failed: %w", err)
	}
	if err := insertItems(ctx, tx, id, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("treatments: commit failed: %w", err)
	}
	return t, nil
}

// Delete removes a treatment; line items go with it via cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("treatments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTreatmentNotFound
	}
	return nil
}

// Stats aggregates volume and revenue by payment status.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(total_cost), 0),
			COALESCE(SUM(total_cost) FILTER (WHERE payment_status = 'paid'), 0),
			COALESCE(SUM(total_cost) FILTER (WHERE payment_status = 'partial'), 0),
			COALESCE(SUM(total_cost) FILTER (WHERE payment_status = 'pending'), 0)
		FROM treatments
	`
	s := &Stats{}
	if err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalTreatments, &s.TotalRevenue, &s.PaidRevenue, &s.PartialRevenue, &s.PendingRevenue,
	); err != nil {
		return nil, fmt.Errorf("treatments: stats failed: %w", err)
	}
	return s, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&t.ID, &t.PatientID, &t.PatientName, &t.AppointmentID, &t.TreatmentDate,
		&t.PaymentStatus, &t.Notes, &t.TotalCost, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return &t, nil
}
