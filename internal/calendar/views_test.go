package calendar

import (
	"testing"

	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/dateutil"
)

func appt(date, at, name string, status appointments.Status) *appointments.Appointment {
	return &appointments.Appointment{
		ID:              date + "T" + at + "-" + name,
		PatientName:     name,
		AppointmentDate: date,
		AppointmentTime: at,
		DurationMinutes: 30,
		Status:          status,
	}
}

func TestMonthGridCollapsesBeyondInlineLimit(t *testing.T) {
	pivot := date(t, "2024-03-15")
	appts := []*appointments.Appointment{
		appt("2024-03-05", "09:00", "Ana", appointments.StatusScheduled),
		appt("2024-03-05", "10:00", "Ben", appointments.StatusScheduled),
		appt("2024-03-05", "11:00", "Carla", appointments.StatusCompleted),
		appt("2024-03-05", "12:00", "Dan", appointments.StatusScheduled),
		appt("2024-03-06", "09:00", "Eva", appointments.StatusScheduled),
	}

	cells := MonthGrid(pivot, appts)
	var day5 *MonthCell
	for i := range cells {
		if cells[i].Date == "2024-03-05" {
			day5 = &cells[i]
		}
	}
	if day5 == nil {
		t.Fatal("2024-03-05 missing from grid")
	}
	if len(day5.Inline) != MonthInlineLimit {
		t.Errorf("inline = %d, want %d", len(day5.Inline), MonthInlineLimit)
	}
	if day5.MoreCount != 2 {
		t.Errorf("MoreCount = %d, want 2", day5.MoreCount)
	}
	// Collapsed entries keep fetch insertion order and carry time + name.
	if day5.More[0].PatientName != "Carla" || day5.More[1].PatientName != "Dan" {
		t.Errorf("More = %+v", day5.More)
	}
	if day5.Summary.Scheduled != 3 || day5.Summary.Completed != 1 {
		t.Errorf("Summary = %+v", day5.Summary)
	}
}

func TestMonthGridCoversAdjacentMonthDays(t *testing.T) {
	// March 2024 starts on a Friday; the first grid week reaches back into
	// February.
	cells := MonthGrid(date(t, "2024-03-15"), nil)
	if len(cells)%7 != 0 {
		t.Fatalf("grid size %d is not whole weeks", len(cells))
	}
	if cells[0].Date != "2024-02-25" {
		t.Errorf("grid starts %s, want 2024-02-25", cells[0].Date)
	}
	if cells[0].InMonth {
		t.Error("february spillover cell marked in-month")
	}
	if cells[len(cells)-1].Date != "2024-04-06" {
		t.Errorf("grid ends %s, want 2024-04-06", cells[len(cells)-1].Date)
	}
}

func TestWeekGridBucketing(t *testing.T) {
	pivot := date(t, "2024-03-06") // a Wednesday
	appts := []*appointments.Appointment{
		appt("2024-03-06", "08:00", "Ana", appointments.StatusScheduled),
		appt("2024-03-06", "08:59", "Ben", appointments.StatusScheduled),
		appt("2024-03-06", "09:00", "Carla", appointments.StatusScheduled),
		appt("2024-03-06", "17:59", "Dan", appointments.StatusScheduled),
		appt("2024-03-06", "18:00", "Eva", appointments.StatusScheduled),
	}

	days := WeekGrid(pivot, appts)
	if len(days) != 7 {
		t.Fatalf("week has %d days", len(days))
	}
	if days[0].Date != "2024-03-03" {
		t.Errorf("week starts %s, want Sunday 2024-03-03", days[0].Date)
	}

	wed := days[3]
	if len(wed.Slots) != 11 {
		t.Fatalf("week slots = %d, want 11", len(wed.Slots))
	}
	if wed.Slots[10].Label != "18:00" {
		t.Errorf("last slot label = %s, want 18:00", wed.Slots[10].Label)
	}
	// [slotStart, slotStart+60): 08:00 and 08:59 share the first bucket,
	// 09:00 starts the next, 17:59 still belongs to the 17:00 bucket.
	if got := len(wed.Slots[0].Appointments); got != 2 {
		t.Errorf("08:00 slot = %d appts, want 2", got)
	}
	if got := len(wed.Slots[1].Appointments); got != 1 {
		t.Errorf("09:00 slot = %d appts, want 1", got)
	}
	if got := len(wed.Slots[9].Appointments); got != 1 {
		t.Errorf("17:00 slot = %d appts, want 1", got)
	}
	// The 18:00 row closes the grid; starts at or past it are out-of-hours
	// and surface in the overflow list instead.
	if got := len(wed.Slots[10].Appointments); got != 0 {
		t.Errorf("18:00 slot = %d appts, want 0", got)
	}
	if len(wed.Overflow) != 1 || wed.Overflow[0].PatientName != "Eva" {
		t.Errorf("overflow = %v, want the 18:00 start", wed.Overflow)
	}
}

func TestDayGridSlotsAndOverflow(t *testing.T) {
	pivot := date(t, "2024-03-06")
	appts := []*appointments.Appointment{
		appt("2024-03-06", "08:00", "Ana", appointments.StatusScheduled),
		appt("2024-03-06", "08:29", "Ben", appointments.StatusScheduled),
		appt("2024-03-06", "08:30", "Carla", appointments.StatusScheduled),
		appt("2024-03-06", "07:30", "Early", appointments.StatusScheduled),
		appt("2024-03-06", "19:00", "Late", appointments.StatusCancelled),
		appt("2024-03-07", "09:00", "OtherDay", appointments.StatusScheduled),
	}

	day := DayGrid(pivot, appts)
	if len(day.Slots) != 20 {
		t.Fatalf("day slots = %d, want 20", len(day.Slots))
	}
	if got := len(day.Slots[0].Appointments); got != 2 {
		t.Errorf("08:00 half-hour slot = %d, want 2", got)
	}
	if got := len(day.Slots[1].Appointments); got != 1 {
		t.Errorf("08:30 slot = %d, want 1", got)
	}

	// Out-of-hours appointments stay visible in the overflow list.
	if len(day.Overflow) != 2 {
		t.Fatalf("overflow = %d, want 2", len(day.Overflow))
	}
	if day.Overflow[0].PatientName != "Early" || day.Overflow[1].PatientName != "Late" {
		t.Errorf("overflow = %s, %s", day.Overflow[0].PatientName, day.Overflow[1].PatientName)
	}

	// Other days are excluded by exact date match, but counted nowhere.
	if day.Summary.Total() != 5 {
		t.Errorf("summary total = %d, want 5", day.Summary.Total())
	}
}

func TestSlotLabels(t *testing.T) {
	day := buildGridDay("2024-03-06", nil, dateutil.BusinessEndMinute-dateutil.BusinessStartMinute, 1)
	if len(day.Slots) != 1 || day.Slots[0].Label != "08:00" {
		t.Fatalf("slots = %+v", day.Slots)
	}

	week := buildGridDay("2024-03-06", nil, WeekSlotMinutes, WeekSlotCount)
	if week.Slots[10].Label != "17:00" {
		t.Errorf("last hourly label = %s, want 17:00", week.Slots[10].Label)
	}
}

func TestAgendaGrouping(t *testing.T) {
	pivot := date(t, "2024-03-15")
	appts := []*appointments.Appointment{
		appt("2024-03-01", "14:30", "Ben", appointments.StatusScheduled),
		appt("2024-03-03", "08:00", "Carla", appointments.StatusScheduled),
		appt("2024-03-01", "09:00", "Ana", appointments.StatusScheduled),
	}

	groups := AgendaGroups(pivot, appts)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Date != "2024-03-01" || groups[1].Date != "2024-03-03" {
		t.Errorf("date order = %s, %s", groups[0].Date, groups[1].Date)
	}
	first := groups[0].Appointments
	if len(first) != 2 || first[0].AppointmentTime != "09:00" || first[1].AppointmentTime != "14:30" {
		t.Errorf("times = %+v", first)
	}
}

func TestAgendaRestrictedToPivotMonth(t *testing.T) {
	pivot := date(t, "2024-03-15")
	appts := []*appointments.Appointment{
		appt("2024-02-28", "09:00", "LastMonth", appointments.StatusScheduled),
		appt("2024-03-10", "09:00", "InMonth", appointments.StatusScheduled),
		appt("2024-04-01", "09:00", "NextMonth", appointments.StatusScheduled),
	}

	groups := AgendaGroups(pivot, appts)
	if len(groups) != 1 || groups[0].Date != "2024-03-10" {
		t.Errorf("groups = %+v", groups)
	}
}
