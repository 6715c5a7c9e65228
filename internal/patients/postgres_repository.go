package patients

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

// db is the slice of pgxpool used by the repository; pgxmock satisfies it in
// tests.
type db interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const patientColumns = `id, patient_id, first_name, last_name, email, phone,
	emergency_phone, date_of_birth, gender, medical_history, notes, created_at, updated_at`

// Create inserts a new row. The display identifier comes from a dedicated
// sequence so it stays stable and human-readable.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}

	history, err := req.MedicalHistory.MarshalForDB()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO patients (id, patient_id, first_name, last_name, email, phone,
			emergency_phone, date_of_birth, gender, medical_history, notes)
		VALUES ($1, 'P-' || lpad(nextval('patient_display_seq')::text, 4, '0'),
			$2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING patient_id, created_at, updated_at
	`
	var displayID string
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.FirstName,
		req.LastName,
		req.Email,
		req.Phone,
		req.EmergencyPhone,
		req.DateOfBirth,
		req.Gender,
		history,
		req.Notes,
	).Scan(&displayID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Patient{
		ID:             id.String(),
		PatientID:      displayID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		EmergencyPhone: req.EmergencyPhone,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		MedicalHistory: req.MedicalHistory,
		Notes:          req.Notes,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// GetByID fetches a patient by internal ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	p, err := scanPatient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return p, nil
}

// List returns patients matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE ($1 = '' OR
			first_name || ' ' || last_name ILIKE '%' || $1 || '%' OR
			patient_id ILIKE '%' || $1 || '%' OR
			email ILIKE '%' || $1 || '%' OR
			phone ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, filter.Search, limit)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of a patient.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}

	history, err := req.MedicalHistory.MarshalForDB()
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE patients
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
			emergency_phone = $6, date_of_birth = $7, gender = $8,
			medical_history = $9, notes = $10, updated_at = now()
		WHERE id = $1
		RETURNING ` + patientColumns
	p, err := scanPatient(r.db.QueryRow(ctx, query,
		id,
		req.FirstName,
		req.LastName,
		req.Email,
		req.Phone,
		req.EmergencyPhone,
		req.DateOfBirth,
		req.Gender,
		history,
		req.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: update failed: %w", err)
	}
	return p, nil
}

// Delete removes a patient. A foreign key restriction from treatments maps
// to ErrPatientReferenced.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrPatientReferenced
		}
		return fmt.Errorf("patients: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// Count returns the total number of patients.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("patients: count failed: %w", err)
	}
	return n, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var history []byte
	if err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.EmergencyPhone,
		&p.DateOfBirth,
		&p.Gender,
		&history,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	h, err := UnmarshalHistoryFromDB(history)
	if err != nil {
		return nil, err
	}
	p.MedicalHistory = h
	return &p, nil
}
