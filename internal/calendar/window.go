package calendar

import (
	"time"

	"github.com/smilepoint/clinic-api/internal/dateutil"
)

// ViewMode selects how the calendar lays out appointments.
type ViewMode string

const (
	ViewMonth  ViewMode = "month"
	ViewWeek   ViewMode = "week"
	ViewDay    ViewMode = "day"
	ViewAgenda ViewMode = "agenda"
)

// DefaultView is used when the client does not name a mode.
const DefaultView = ViewMonth

// Valid reports whether v is a known view mode.
func (v ViewMode) Valid() bool {
	switch v {
	case ViewMonth, ViewWeek, ViewDay, ViewAgenda:
		return true
	}
	return false
}

// Window derives the fetch date range for a view/pivot combination. The
// windows over-fetch on purpose: each view re-derives its visible subset by
// exact date match, and the slack covers view edge cases such as month-grid
// cells showing adjacent-month days.
//
//	month:  month boundaries ± 7 days
//	week:   pivot ± 14 days
//	day:    pivot ± 7 days
//	agenda: today − 30 days .. today + 90 days, anchored to now, not pivot
func Window(view ViewMode, pivot, now time.Time) (startDate, endDate string) {
	switch view {
	case ViewWeek:
		return dateutil.FormatDate(dateutil.AddDays(pivot, -14)),
			dateutil.FormatDate(dateutil.AddDays(pivot, 14))
	case ViewDay:
		return dateutil.FormatDate(dateutil.AddDays(pivot, -7)),
			dateutil.FormatDate(dateutil.AddDays(pivot, 7))
	case ViewAgenda:
		today := dateutil.Truncate(now)
		return dateutil.FormatDate(dateutil.AddDays(today, -30)),
			dateutil.FormatDate(dateutil.AddDays(today, 90))
	default: // month
		first, last := dateutil.MonthBounds(pivot)
		return dateutil.FormatDate(dateutil.AddDays(first, -7)),
			dateutil.FormatDate(dateutil.AddDays(last, 7))
	}
}
