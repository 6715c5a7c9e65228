package appointments

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

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const apptColumns = `a.id, a.patient_id, p.first_name || ' ' || p.last_name,
	a.appointment_date, a.appointment_time, a.duration_minutes, a.status, a.notes,
	a.created_at, a.updated_at`

// Create inserts a new scheduled appointment.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO appointments (id, patient_id, appointment_date, appointment_time,
			duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.PatientID,
		req.AppointmentDate,
		req.AppointmentTime,
		req.DurationMinutes,
		req.Notes,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:              id.String(),
		PatientID:       req.PatientID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// GetByID fetches an appointment joined with the patient display name.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments a JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return a, nil
}

// List returns appointments inside the window, capped at MaxListLimit.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	filter = filter.Normalize()

	query := `
		SELECT ` + apptColumns + `
		FROM appointments a JOIN patients p ON p.id = a.patient_id
		WHERE ($1 = '' OR a.appointment_date >= $1)
			AND ($2 = '' OR a.appointment_date <= $2)
			AND ($3 = '' OR a.status = $3)
		ORDER BY a.appointment_date, a.appointment_time
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, filter.StartDate, filter.EndDate, string(filter.Status), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update replaces the schedulable fields.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3, duration_minutes = $4,
			notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING id
	`
	var updated string
	if err := r.db.QueryRow(ctx, query,
		id, req.AppointmentDate, req.AppointmentTime, req.DurationMinutes, req.Notes,
	).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	return r.GetByID(ctx, id)
}

// ChangeStatus applies the transition gate inside a read-check-write using
// the current row state.
func (r *PostgresRepository) ChangeStatus(ctx context.Context, id string, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		return nil, ErrInvalidTransition
	}

	query := `
		UPDATE appointments SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING id
	`
	var updated string
	if err := r.db.QueryRow(ctx, query, id, string(to), string(current.Status)).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row changed underneath us; the stale transition is rejected.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("appointments: status update failed: %w", err)
	}
	current.Status = to
	return current, nil
}

// Delete removes an appointment.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.DurationMinutes,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
