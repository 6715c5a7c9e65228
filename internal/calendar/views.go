package calendar

import (
	"sort"
	"time"

	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/dateutil"
)

// MonthInlineLimit caps the appointments rendered inline in a month cell;
// the remainder collapses behind a "+N more" affordance.
const MonthInlineLimit = 2

// Slot sizes and row counts for the time grids. The week grid labels every
// hour 08:00 through 18:00 inclusive, so it carries one more row than the
// window holds whole hours; the day grid stops at the last half-hour start.
const (
	WeekSlotMinutes = 60
	WeekSlotCount   = 11
	DaySlotMinutes  = 30
	DaySlotCount    = 20
)

// StatusSummary counts appointments by status for a day or slot.
type StatusSummary struct {
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"no_show"`
}

func (s *StatusSummary) add(status appointments.Status) {
	switch status {
	case appointments.StatusScheduled:
		s.Scheduled++
	case appointments.StatusCompleted:
		s.Completed++
	case appointments.StatusCancelled:
		s.Cancelled++
	case appointments.StatusNoShow:
		s.NoShow++
	}
}

// Total returns the summed count across statuses.
func (s StatusSummary) Total() int {
	return s.Scheduled + s.Completed + s.Cancelled + s.NoShow
}

// MoreItem is one collapsed entry behind the "+N more" affordance.
type MoreItem struct {
	Time        string `json:"time"`
	PatientName string `json:"patient_name"`
}

// MonthCell is one day in the month grid.
type MonthCell struct {
	Date      string                      `json:"date"`
	InMonth   bool                        `json:"in_month"`
	Inline    []*appointments.Appointment `json:"inline"`
	MoreCount int                         `json:"more_count"`
	More      []MoreItem                  `json:"more,omitempty"`
	Summary   StatusSummary               `json:"summary"`
}

// TimeSlot is one bucket of the week/day grid.
type TimeSlot struct {
	Label        string                      `json:"label"`
	StartMinute  int                         `json:"start_minute"`
	Appointments []*appointments.Appointment `json:"appointments"`
}

// GridDay is one column of the week grid, or the single day-view column.
type GridDay struct {
	Date    string                      `json:"date"`
	Slots   []TimeSlot                  `json:"slots"`
	// Overflow lists appointments starting outside 08:00-18:00 so they stay
	// visible instead of silently dropping off the grid.
	Overflow []*appointments.Appointment `json:"overflow,omitempty"`
	Summary  StatusSummary               `json:"summary"`
}

// AgendaGroup is one date's appointments in the agenda view.
type AgendaGroup struct {
	Date         string                      `json:"date"`
	Appointments []*appointments.Appointment `json:"appointments"`
	Summary      StatusSummary               `json:"summary"`
}

// byDate partitions appointments by exact appointment_date match, keeping
// fetch insertion order within each day.
func byDate(appts []*appointments.Appointment) map[string][]*appointments.Appointment {
	m := make(map[string][]*appointments.Appointment)
	for _, a := range appts {
		m[a.AppointmentDate] = append(m[a.AppointmentDate], a)
	}
	return m
}

// MonthGrid lays out the full rendered grid for the pivot's month: complete
// weeks from the Sunday on or before the 1st through the Saturday on or
// after the last day, so adjacent-month days appear in place.
func MonthGrid(pivot time.Time, appts []*appointments.Appointment) []MonthCell {
	first, last := dateutil.MonthBounds(pivot)
	gridStart := dateutil.AddDays(first, -int(first.Weekday()))
	gridEnd := dateutil.AddDays(last, 6-int(last.Weekday()))

	perDay := byDate(appts)
	var cells []MonthCell
	for d := gridStart; !d.After(gridEnd); d = dateutil.AddDays(d, 1) {
		date := dateutil.FormatDate(d)
		dayAppts := perDay[date]

		cell := MonthCell{
			Date:    date,
			InMonth: d.Month() == pivot.Month(),
		}
		for _, a := range dayAppts {
			cell.Summary.add(a.Status)
		}
		if len(dayAppts) <= MonthInlineLimit {
			cell.Inline = dayAppts
		} else {
			cell.Inline = dayAppts[:MonthInlineLimit]
			cell.MoreCount = len(dayAppts) - MonthInlineLimit
			for _, a := range dayAppts[MonthInlineLimit:] {
				cell.More = append(cell.More, MoreItem{Time: a.AppointmentTime, PatientName: a.PatientName})
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

// WeekGrid buckets each day of the pivot's week (Sunday-start) into 11
// one-hour slots across business hours.
func WeekGrid(pivot time.Time, appts []*appointments.Appointment) []GridDay {
	weekStart := dateutil.AddDays(dateutil.Truncate(pivot), -int(pivot.Weekday()))
	perDay := byDate(appts)

	days := make([]GridDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := dateutil.FormatDate(dateutil.AddDays(weekStart, i))
		days = append(days, buildGridDay(date, perDay[date], WeekSlotMinutes, WeekSlotCount))
	}
	return days
}

// DayGrid buckets a single day into 20 thirty-minute slots across business
// hours.
func DayGrid(pivot time.Time, appts []*appointments.Appointment) GridDay {
	date := dateutil.FormatDate(pivot)
	return buildGridDay(date, byDate(appts)[date], DaySlotMinutes, DaySlotCount)
}

func buildGridDay(date string, dayAppts []*appointments.Appointment, slotMinutes, slotCount int) GridDay {
	day := GridDay{Date: date}
	for i := 0; i < slotCount; i++ {
		start := dateutil.BusinessStartMinute + i*slotMinutes
		day.Slots = append(day.Slots, TimeSlot{
			Label:       minuteLabel(start),
			StartMinute: start,
		})
	}
	for _, a := range dayAppts {
		day.Summary.add(a.Status)
		minute := a.MinuteOfDay()
		if minute < 0 {
			continue
		}
		if !dateutil.IsBusinessHour(minute) {
			day.Overflow = append(day.Overflow, a)
			continue
		}
		idx := (minute - dateutil.BusinessStartMinute) / slotMinutes
		day.Slots[idx].Appointments = append(day.Slots[idx].Appointments, a)
	}
	return day
}

func minuteLabel(minute int) string {
	return time.Date(0, 1, 1, minute/60, minute%60, 0, 0, time.UTC).Format(dateutil.TimeLayout)
}

// AgendaGroups groups fetched appointments by date within the pivot month,
// dates ascending, each day sorted ascending by time. Zero-padded HH:mm
// makes the lexicographic time comparison correct.
func AgendaGroups(pivot time.Time, appts []*appointments.Appointment) []AgendaGroup {
	first, last := dateutil.MonthBounds(pivot)
	lo, hi := dateutil.FormatDate(first), dateutil.FormatDate(last)

	perDay := make(map[string][]*appointments.Appointment)
	for _, a := range appts {
		if a.AppointmentDate < lo || a.AppointmentDate > hi {
			continue
		}
		perDay[a.AppointmentDate] = append(perDay[a.AppointmentDate], a)
	}

	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]AgendaGroup, 0, len(dates))
	for _, date := range dates {
		dayAppts := perDay[date]
		sort.SliceStable(dayAppts, func(i, j int) bool {
			return dayAppts[i].AppointmentTime < dayAppts[j].AppointmentTime
		})
		group := AgendaGroup{Date: date, Appointments: dayAppts}
		for _, a := range dayAppts {
			group.Summary.add(a.Status)
		}
		groups = append(groups, group)
	}
	return groups
}
