package procedures

import (
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
	r.Route("/api/procedures", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/popular", h.Popular)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func TestHandlerCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(repo)

	body := `{"name":"Root Canal","default_cost":300,"estimated_duration":90}`
	req := httptest.NewRequest(http.MethodPost, "/api/procedures", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data Procedure `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Data.IsActive {
		t.Error("created procedure should be active by default")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/procedures/"+env.Data.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestHandlerCreateRejectsNegativeCost(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body := `{"name":"Filling","default_cost":-5,"estimated_duration":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/procedures", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerDeleteReferencedConflict(t *testing.T) {
	repo := NewInMemoryRepository()
	p := seed(t, repo, "Filling", 90)
	repo.RecordUsage(p.ID, 1)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/procedures/"+p.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandlerPopular(t *testing.T) {
	repo := NewInMemoryRepository()
	p := seed(t, repo, "Cleaning", 50)
	repo.RecordUsage(p.ID, 3)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/procedures/popular?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data struct {
			Procedures []PopularProcedure `json:"procedures"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data.Procedures) != 1 || env.Data.Procedures[0].UsageCount != 3 {
		t.Errorf("popular = %+v", env.Data.Procedures)
	}
}

func TestHandlerListBadActiveFlag(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())
	req := httptest.NewRequest(http.MethodGet, "/api/procedures?is_active=maybe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
