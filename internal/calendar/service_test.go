package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smilepoint/clinic-api/internal/appointments"
)

// hookRepo wraps the in-memory repository and runs a hook before each List,
// letting tests simulate a newer fetch being issued mid-flight.
type hookRepo struct {
	*appointments.InMemoryRepository
	onList func()
}

func (r *hookRepo) List(ctx context.Context, filter appointments.ListFilter) ([]*appointments.Appointment, error) {
	if r.onList != nil {
		r.onList()
	}
	return r.InMemoryRepository.List(ctx, filter)
}

type failingRepo struct {
	*appointments.InMemoryRepository
}

func (r *failingRepo) List(ctx context.Context, filter appointments.ListFilter) ([]*appointments.Appointment, error) {
	return nil, errors.New("connection refused")
}

func TestBuildViewMonth(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	if _, err := repo.Create(context.Background(), &appointments.CreateAppointmentRequest{
		PatientID: "p1", AppointmentDate: "2024-02-15", AppointmentTime: "09:00", DurationMinutes: 30,
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewService(repo, 0, nil, nil)
	view, err := svc.BuildView(context.Background(), ViewMonth, date(t, "2024-02-15"))
	if err != nil {
		t.Fatalf("BuildView: %v", err)
	}
	if view.StartDate != "2024-01-25" || view.EndDate != "2024-03-07" {
		t.Errorf("window = %s..%s", view.StartDate, view.EndDate)
	}
	if view.Fetched != 1 {
		t.Errorf("Fetched = %d, want 1", view.Fetched)
	}
	if view.Month == nil || view.Week != nil || view.Day != nil || view.Agenda != nil {
		t.Error("exactly the month layout should be populated")
	}
}

func TestBuildViewAgendaAnchoredToNow(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	svc := NewService(repo, 0, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	view, err := svc.BuildView(context.Background(), ViewAgenda, date(t, "2020-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if view.StartDate != "2024-02-09" || view.EndDate != "2024-06-08" {
		t.Errorf("agenda window = %s..%s", view.StartDate, view.EndDate)
	}
}

func TestStaleFetchIsDropped(t *testing.T) {
	repo := &hookRepo{InMemoryRepository: appointments.NewInMemoryRepository()}
	svc := NewService(repo, 0, nil, nil)

	// While the fetch is in flight, a newer request bumps the sequence.
	repo.onList = func() { svc.seq.Add(1) }

	_, err := svc.BuildView(context.Background(), ViewMonth, date(t, "2024-02-15"))
	if !errors.Is(err, ErrStaleFetch) {
		t.Errorf("err = %v, want ErrStaleFetch", err)
	}
}

func TestFetchFailureSurfaces(t *testing.T) {
	svc := NewService(&failingRepo{}, 0, nil, nil)
	_, err := svc.BuildView(context.Background(), ViewWeek, date(t, "2024-02-15"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrStaleFetch) {
		t.Error("plain failures must not look like stale fetches")
	}
}

func TestBuildViewDefaultsUnknownMode(t *testing.T) {
	svc := NewService(appointments.NewInMemoryRepository(), 0, nil, nil)
	view, err := svc.BuildView(context.Background(), ViewMode("quarter"), date(t, "2024-02-15"))
	if err != nil {
		t.Fatal(err)
	}
	if view.View != ViewMonth {
		t.Errorf("view = %s, want month fallback", view.View)
	}
}
