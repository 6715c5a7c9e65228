package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/patients"
	"github.com/smilepoint/clinic-api/internal/treatments"
)

// MemoryStats computes dashboard metrics from the in-memory repositories.
// It backs local development runs without a database; window counts are
// bounded by the appointment fetch cap.
type MemoryStats struct {
	patients     patients.Repository
	appointments appointments.Repository
	treatments   treatments.Repository
	now          func() time.Time
}

// NewMemoryStats creates a stats provider over the in-memory repositories.
func NewMemoryStats(p patients.Repository, a appointments.Repository, t treatments.Repository) *MemoryStats {
	return &MemoryStats{patients: p, appointments: a, treatments: t, now: time.Now}
}

// GetStats aggregates the same metrics the database-backed provider reports.
func (m *MemoryStats) GetStats(ctx context.Context) (*Stats, error) {
	now := m.now().UTC()
	today := now.Format("2006-01-02")
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &Stats{}

	total, err := m.patients.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: count patients: %w", err)
	}
	stats.TotalPatients = total

	all, err := m.patients.List(ctx, patients.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: list patients: %w", err)
	}
	for _, p := range all {
		if !p.CreatedAt.Before(monthStart) {
			stats.NewPatientsThisMonth++
		}
	}

	todayAppts, err := m.appointments.List(ctx, appointments.ListFilter{
		StartDate: today,
		EndDate:   today,
		Limit:     appointments.MaxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: list today's appointments: %w", err)
	}
	stats.AppointmentsToday = int64(len(todayAppts))
	for _, a := range todayAppts {
		switch a.Status {
		case appointments.StatusScheduled:
			stats.ScheduledToday++
		case appointments.StatusCompleted:
			stats.CompletedToday++
		}
	}

	upcoming, err := m.appointments.List(ctx, appointments.ListFilter{
		StartDate: now.AddDate(0, 0, 1).Format("2006-01-02"),
		Status:    appointments.StatusScheduled,
		Limit:     appointments.MaxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: list upcoming appointments: %w", err)
	}
	stats.UpcomingAppointments = int64(len(upcoming))

	rows, err := m.treatments.List(ctx, treatments.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: list treatments: %w", err)
	}
	for _, t := range rows {
		if t.TreatmentDate >= monthStart.Format("2006-01-02") {
			stats.MonthlyRevenue += t.TotalCost
		}
		if t.PaymentStatus == treatments.PaymentPending || t.PaymentStatus == treatments.PaymentPartial {
			stats.PendingPayments += t.TotalCost
		}
	}

	return stats, nil
}
