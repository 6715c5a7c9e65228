package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/dateutil"
	"github.com/smilepoint/clinic-api/internal/observability/metrics"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// ErrStaleFetch marks a window fetch that was superseded by a newer one
// before it completed. Callers drop the result instead of rendering it.
var ErrStaleFetch = errors.New("calendar: fetch superseded by a newer request")

// View is the rendered calendar structure returned to the client. Exactly
// one of the per-mode fields is populated.
type View struct {
	View      ViewMode      `json:"view"`
	PivotDate string        `json:"pivot_date"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Fetched   int           `json:"fetched"`
	Month     []MonthCell   `json:"month,omitempty"`
	Week      []GridDay     `json:"week,omitempty"`
	Day       *GridDay      `json:"day,omitempty"`
	Agenda    []AgendaGroup `json:"agenda,omitempty"`
}

// Service coordinates window derivation, the appointment fetch and the
// per-view layout.
type Service struct {
	repo    appointments.Repository
	limit   int
	metrics *metrics.APIMetrics
	tracer  trace.Tracer
	logger  *logging.Logger

	// seq guards against a slow stale window fetch overwriting the result
	// of a newer one.
	seq atomic.Uint64

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a calendar service. limit caps each window fetch and
// defaults to the appointment list cap when non-positive.
func NewService(repo appointments.Repository, limit int, m *metrics.APIMetrics, logger *logging.Logger) *Service {
	if limit <= 0 {
		limit = appointments.MaxListLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		limit:   limit,
		metrics: m,
		tracer:  otel.Tracer("calendar"),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// BuildView fetches the window for view/pivot and lays it out.
func (s *Service) BuildView(ctx context.Context, view ViewMode, pivot time.Time) (*View, error) {
	if !view.Valid() {
		view = DefaultView
	}
	now := s.now()
	startDate, endDate := Window(view, pivot, now)

	appts, err := s.fetchWindow(ctx, view, startDate, endDate)
	if err != nil {
		s.metrics.ObserveCalendarFetch(string(view), "error")
		return nil, err
	}
	s.metrics.ObserveCalendarFetch(string(view), "ok")

	out := &View{
		View:      view,
		PivotDate: dateutil.FormatDate(pivot),
		StartDate: startDate,
		EndDate:   endDate,
		Fetched:   len(appts),
	}
	switch view {
	case ViewWeek:
		out.Week = WeekGrid(pivot, appts)
	case ViewDay:
		day := DayGrid(pivot, appts)
		out.Day = &day
	case ViewAgenda:
		out.Agenda = AgendaGroups(pivot, appts)
	default:
		out.Month = MonthGrid(pivot, appts)
	}
	return out, nil
}

func (s *Service) fetchWindow(ctx context.Context, view ViewMode, startDate, endDate string) ([]*appointments.Appointment, error) {
	seq := s.seq.Add(1)

	ctx, span := s.tracer.Start(ctx, "calendar.fetch_window",
		trace.WithAttributes(
			attribute.String("calendar.view", string(view)),
			attribute.String("calendar.start_date", startDate),
			attribute.String("calendar.end_date", endDate),
		))
	defer span.End()

	appts, err := s.repo.List(ctx, appointments.ListFilter{
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     s.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: window fetch failed: %w", err)
	}

	// A newer fetch was issued while this one was in flight: its result is
	// fresher, so this one must not win.
	if s.seq.Load() != seq {
		s.logger.Debug("dropping stale calendar fetch", "seq", seq, "view", string(view))
		return nil, ErrStaleFetch
	}
	return appts, nil
}
