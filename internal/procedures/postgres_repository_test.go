package procedures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func now() time.Time { return time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC) }

func TestPostgresDeleteMapsForeignKeyViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM procedures WHERE id = \$1`).
		WithArgs("proc1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), "proc1"); !errors.Is(err, ErrProcedureReferenced) {
		t.Errorf("err = %v, want ErrProcedureReferenced", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM procedures WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrProcedureNotFound) {
		t.Errorf("err = %v, want ErrProcedureNotFound", err)
	}
}

func TestPostgresPopularScansUsage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "default_cost", "estimated_duration",
		"is_active", "created_at", "updated_at", "usage_count",
	}).AddRow("proc1", "Filling", "", 90.0, 30, true, now(), now(), int64(5))

	mock.ExpectQuery(`LEFT JOIN treatment_procedures`).
		WithArgs(5).
		WillReturnRows(rows)

	repo := NewPostgresRepositoryWithDB(mock)
	top, err := repo.Popular(context.Background(), 5)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(top) != 1 || top[0].UsageCount != 5 {
		t.Errorf("top = %+v", top)
	}
}
