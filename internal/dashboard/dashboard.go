// Package dashboard aggregates the headline numbers for the staff landing
// page: patient counts, today's schedule and treatment revenue.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats is the GET /api/dashboard/stats payload.
type Stats struct {
	TotalPatients        int64   `json:"total_patients"`
	NewPatientsThisMonth int64   `json:"new_patients_this_month"`
	AppointmentsToday    int64   `json:"appointments_today"`
	ScheduledToday       int64   `json:"scheduled_today"`
	CompletedToday       int64   `json:"completed_today"`
	UpcomingAppointments int64   `json:"upcoming_appointments"`
	MonthlyRevenue       float64 `json:"monthly_revenue"`
	PendingPayments      float64 `json:"pending_payments"`
}

type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries dashboard metrics from the database.
type StatsRepository struct {
	db  statsDB
	now func() time.Time
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("dashboard: pgx pool required for stats")
	}
	return &StatsRepository{db: pool, now: time.Now}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db, now: time.Now}
}

// GetStats retrieves the aggregated dashboard metrics.
func (r *StatsRepository) GetStats(ctx context.Context) (*Stats, error) {
	now := r.now().UTC()
	today := now.Format("2006-01-02")
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &Stats{}

	patientsQuery := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM patients
	`
	if err := r.db.QueryRow(ctx, patientsQuery, monthStart).
		Scan(&stats.TotalPatients, &stats.NewPatientsThisMonth); err != nil {
		return nil, fmt.Errorf("dashboard stats: count patients: %w", err)
	}

	todayQuery := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM appointments
		WHERE appointment_date = $1
	`
	if err := r.db.QueryRow(ctx, todayQuery, today).
		Scan(&stats.AppointmentsToday, &stats.ScheduledToday, &stats.CompletedToday); err != nil {
		return nil, fmt.Errorf("dashboard stats: count today's appointments: %w", err)
	}

	upcomingQuery := `
		SELECT COUNT(*)
		FROM appointments
		WHERE appointment_date > $1 AND status = 'scheduled'
	`
	if err := r.db.QueryRow(ctx, upcomingQuery, today).Scan(&stats.UpcomingAppointments); err != nil {
		return nil, fmt.Errorf("dashboard stats: count upcoming appointments: %w", err)
	}

	revenueQuery := `
		SELECT COALESCE(SUM(total_cost) FILTER (WHERE treatment_date >= $1::date), 0),
			COALESCE(SUM(total_cost) FILTER (WHERE payment_status IN ('pending', 'partial')), 0)
		FROM treatments
	`
	if err := r.db.QueryRow(ctx, revenueQuery, monthStart.Format("2006-01-02")).
		Scan(&stats.MonthlyRevenue, &stats.PendingPayments); err != nil {
		return nil, fmt.Errorf("dashboard stats: sum revenue: %w", err)
	}

	return stats, nil
}
