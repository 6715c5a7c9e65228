// Package router assembles the HTTP surface from the per-domain handlers.
package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/smilepoint/clinic-api/internal/appointments"
	"github.com/smilepoint/clinic-api/internal/calendar"
	"github.com/smilepoint/clinic-api/internal/dashboard"
	httpmiddleware "github.com/smilepoint/clinic-api/internal/http/middleware"
	"github.com/smilepoint/clinic-api/internal/notifications"
	"github.com/smilepoint/clinic-api/internal/observability/metrics"
	"github.com/smilepoint/clinic-api/internal/patients"
	"github.com/smilepoint/clinic-api/internal/procedures"
	"github.com/smilepoint/clinic-api/internal/qrtokens"
	"github.com/smilepoint/clinic-api/internal/registration"
	"github.com/smilepoint/clinic-api/internal/reminders"
	"github.com/smilepoint/clinic-api/internal/treatments"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	PatientsHandler      *patients.Handler
	AppointmentsHandler  *appointments.Handler
	CalendarHandler      *calendar.Handler
	ProceduresHandler    *procedures.Handler
	TreatmentsHandler    *treatments.Handler
	QRTokensHandler      *qrtokens.Handler
	RegistrationHandler  *registration.Handler
	NotificationsHandler *notifications.Handler
	RemindersHandler     *reminders.Handler
	DashboardHandler     *dashboard.Handler
	Metrics              *metrics.APIMetrics
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(instrument(cfg.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/dashboard/stats", cfg.DashboardHandler.GetStats)

		api.Route("/patients", func(r chi.Router) {
			r.Get("/", cfg.PatientsHandler.List)
			r.Post("/", cfg.PatientsHandler.Create)
			r.Get("/export", cfg.PatientsHandler.ExportCSVHandler)
			r.Get("/{id}", cfg.PatientsHandler.Get)
			r.Put("/{id}", cfg.PatientsHandler.Update)
			r.Delete("/{id}", cfg.PatientsHandler.Delete)
		})

		api.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Post("/", cfg.AppointmentsHandler.Create)
			r.Get("/{id}", cfg.AppointmentsHandler.Get)
			r.Put("/{id}", cfg.AppointmentsHandler.Update)
			r.Put("/{id}/status", cfg.AppointmentsHandler.ChangeStatus)
			r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
		})

		api.Get("/calendar", cfg.CalendarHandler.Get)

		api.Route("/procedures", func(r chi.Router) {
			r.Get("/", cfg.ProceduresHandler.List)
			r.Post("/", cfg.ProceduresHandler.Create)
			r.Get("/popular", cfg.ProceduresHandler.Popular)
			r.Get("/{id}", cfg.ProceduresHandler.Get)
			r.Put("/{id}", cfg.ProceduresHandler.Update)
			r.Delete("/{id}", cfg.ProceduresHandler.Delete)
		})

		api.Route("/treatments", func(r chi.Router) {
			r.Get("/", cfg.TreatmentsHandler.List)
			r.Post("/", cfg.TreatmentsHandler.Create)
			r.Get("/stats", cfg.TreatmentsHandler.StatsHandler)
			r.Get("/{id}", cfg.TreatmentsHandler.Get)
			r.Put("/{id}", cfg.TreatmentsHandler.Update)
			r.Delete("/{id}", cfg.TreatmentsHandler.Delete)
		})

		api.Route("/qr-tokens", func(r chi.Router) {
			r.Get("/", cfg.QRTokensHandler.List)
			r.Post("/", cfg.QRTokensHandler.Generate)
			r.Post("/cleanup", cfg.QRTokensHandler.Cleanup)
			r.Get("/{id}", cfg.QRTokensHandler.Get)
			r.Delete("/{id}", cfg.QRTokensHandler.Delete)
			r.Get("/{id}/image", cfg.QRTokensHandler.Image)
		})

		// Public self-registration: reached from QR codes on unauthenticated
		// devices, so it gets its own rate limit.
		api.Route("/register/{token}", func(r chi.Router) {
			r.Use(httpmiddleware.RateLimit(5, 10))
			r.Get("/", cfg.RegistrationHandler.Check)
			r.Put("/draft", cfg.RegistrationHandler.SaveDraft)
			r.Post("/", cfg.RegistrationHandler.Submit)
		})

		api.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationsHandler.List)
			r.Put("/", cfg.NotificationsHandler.MarkRead)
		})

		api.Route("/reminders/config", func(r chi.Router) {
			r.Get("/", cfg.RemindersHandler.GetConfig)
			r.Put("/", cfg.RemindersHandler.PutConfig)
			r.Post("/test", cfg.RemindersHandler.TestSend)
		})
	})

	return r
}

// instrument records request counts and latency per route pattern.
func instrument(m *metrics.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
		})
	}
}
