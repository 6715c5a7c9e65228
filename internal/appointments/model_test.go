package appointments

import "testing"

func TestStatusTransitionGate(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusCancelled},
		{StatusScheduled, StatusNoShow},
		{StatusCancelled, StatusScheduled},
		{StatusNoShow, StatusScheduled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	rejected := []struct{ from, to Status }{
		{StatusCompleted, StatusScheduled},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusNoShow},
		{StatusCompleted, StatusCompleted},
		{StatusScheduled, StatusScheduled},
		{StatusCancelled, StatusCompleted},
		{StatusNoShow, StatusCompleted},
	}
	for _, tc := range rejected {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("pending").Valid() {
		t.Error("pending is not a known status")
	}
}

func TestCreateRequestValidate(t *testing.T) {
	base := CreateAppointmentRequest{
		PatientID:       "p1",
		AppointmentDate: "2024-03-01",
		AppointmentTime: "09:00",
		DurationMinutes: 30,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CreateAppointmentRequest)
		want   error
	}{
		{"missing patient", func(r *CreateAppointmentRequest) { r.PatientID = " " }, ErrMissingPatient},
		{"bad date", func(r *CreateAppointmentRequest) { r.AppointmentDate = "03/01/2024" }, ErrInvalidDate},
		{"bad time", func(r *CreateAppointmentRequest) { r.AppointmentTime = "9am" }, ErrInvalidTime},
		{"zero duration", func(r *CreateAppointmentRequest) { r.DurationMinutes = 0 }, ErrInvalidDuration},
	}
	for _, tc := range cases {
		req := base
		tc.mutate(&req)
		if err := req.Validate(); err != tc.want {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestListFilterNormalize(t *testing.T) {
	if got := (ListFilter{}).Normalize().Limit; got != MaxListLimit {
		t.Errorf("default limit = %d, want %d", got, MaxListLimit)
	}
	if got := (ListFilter{Limit: 500}).Normalize().Limit; got != MaxListLimit {
		t.Errorf("oversized limit = %d, want cap %d", got, MaxListLimit)
	}
	if got := (ListFilter{Limit: 10}).Normalize().Limit; got != 10 {
		t.Errorf("limit = %d, want 10", got)
	}
}
