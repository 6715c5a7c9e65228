package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestInMemoryGetAllKeepsDisplayOrder(t *testing.T) {
	repo := NewInMemoryRepository()

	configs, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(configs) != len(Types) {
		t.Fatalf("got %d configs, want %d", len(configs), len(Types))
	}
	for i, c := range configs {
		if c.Type != Types[i] {
			t.Errorf("configs[%d].Type = %q, want %q", i, c.Type, Types[i])
		}
	}
}

func TestInMemoryUpsertReplacesRow(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.Upsert(ctx, &Config{
		Type:        TypeCustom,
		HoursBefore: 72,
		IsEnabled:   true,
		Subject:     "Checkup time",
		Body:        "Hi {{patient_name}}, see you on {{appointment_date}}.",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, TypeCustom)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.HoursBefore != 72 || !got.IsEnabled {
		t.Errorf("got %+v, want hours 72 enabled", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on upsert")
	}
}

func TestInMemoryUpsertRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.Upsert(context.Background(), &Config{Type: "weekly", HoursBefore: 1})
	if !errors.Is(err, ErrInvalidType) {
		t.Errorf("err = %v, want ErrInvalidType", err)
	}
}

func TestPostgresGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM reminder_configs WHERE reminder_type = \$1`).
		WithArgs(TypeDayOf).
		WillReturnRows(pgxmock.NewRows([]string{"reminder_type", "hours_before", "is_enabled", "subject", "body", "updated_at"}))

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.Get(context.Background(), TypeDayOf); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestPostgresUpsertReturnsTimestamp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	updated := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO reminder_configs`).
		WithArgs(Type24Hour, 24, true, "Reminder", "Hi {{patient_name}}").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))

	repo := NewPostgresRepositoryWithDB(mock)
	got, err := repo.Upsert(context.Background(), &Config{
		Type:        Type24Hour,
		HoursBefore: 24,
		IsEnabled:   true,
		Subject:     "Reminder",
		Body:        "Hi {{patient_name}}",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
