package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, logging.Default())
	r := chi.NewRouter()
	r.Get("/api/appointments", h.List)
	r.Post("/api/appointments", h.Create)
	r.Get("/api/appointments/{id}", h.Get)
	r.Put("/api/appointments/{id}", h.Update)
	r.Put("/api/appointments/{id}/status", h.ChangeStatus)
	r.Delete("/api/appointments/{id}", h.Delete)
	return r
}

func TestHandlerCreate(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body := `{"patient_id":"p1","appointment_date":"2024-03-01","appointment_time":"09:00","duration_minutes":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data Appointment `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Status != StatusScheduled {
		t.Errorf("new appointment status = %s, want scheduled", env.Data.Status)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body := `{"patient_id":"p1","appointment_date":"bad","appointment_time":"09:00","duration_minutes":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerStatusTransition(t *testing.T) {
	repo := NewInMemoryRepository()
	a, err := repo.Create(context.Background(), &CreateAppointmentRequest{
		PatientID: "p1", AppointmentDate: "2024-03-01", AppointmentTime: "09:00", DurationMinutes: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPut, "/api/appointments/"+a.ID+"/status", strings.NewReader(`{"status":"completed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Completed is terminal: the second transition must 409.
	req = httptest.NewRequest(http.MethodPut, "/api/appointments/"+a.ID+"/status", strings.NewReader(`{"status":"cancelled"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("terminal transition status = %d, want 409", rec.Code)
	}
}

func TestHandlerListRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())
	req := httptest.NewRequest(http.MethodGet, "/api/appointments?status=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
