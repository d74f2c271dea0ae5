package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pagepulse/pagepulse/internal/audit"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/engine"
	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/pagepulse/pagepulse/internal/repo"
)

type stubEngine struct {
	result *engine.Result
	err    error
}

func (s *stubEngine) Audit(ctx context.Context, url, formFactor string, clientID *int64) (*engine.Result, error) {
	return s.result, s.err
}

type emptySource struct{}

func (emptySource) ListScheduled(ctx context.Context) ([]models.Client, error) { return nil, nil }

// newTestAPI wires the full router around a mocked database and a stubbed
// engine, the same shape main() builds.
func newTestAPI(t *testing.T, eng *stubEngine) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := repo.NewClientRepo(db)
	runner := audit.NewRunner(clients, eng, log, time.Minute)
	registry := jobs.New(clients,
		func(ctx context.Context, clientID int64, formFactor string) error {
			_, err := runner.Run(ctx, clientID, formFactor)
			return err
		},
		log, time.Minute,
	)
	t.Cleanup(registry.Shutdown)

	return newRouter(db, config.Config{}, registry, runner), mock
}

func clientRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "url", "platform", "schedule", "schedule_enabled", "created_at"})
}

func TestAPI_Health(t *testing.T) {
	router, _ := newTestAPI(t, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestAPI_Metrics(t *testing.T) {
	router, _ := newTestAPI(t, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "schedule_jobs_active") {
		t.Error("metrics output should expose the registry gauge")
	}
}

func TestAPI_CreateListDeleteClient(t *testing.T) {
	router, mock := newTestAPI(t, &stubEngine{})
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs("Acme", "https://acme.com", "mobile").
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "mobile", nil, false, now))
	mock.ExpectQuery(`LEFT JOIN LATERAL`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "url", "platform", "schedule", "schedule_enabled", "created_at",
			"created_at", "performance"}).
			AddRow(1, "Acme", "https://acme.com", "mobile", nil, false, now, nil, nil))
	mock.ExpectQuery(`SELECT id, name, url, platform`).
		WithArgs(int64(1)).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "mobile", nil, false, now))
	mock.ExpectExec(`DELETE FROM clients`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Create
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clients",
		strings.NewReader(`{"name": "Acme", "url": "https://acme.com", "platform": "mobile"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201, body %s", rec.Code, rec.Body)
	}

	// List
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	var list []models.ClientSummary
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Acme" {
		t.Errorf("unexpected list: %+v", list)
	}

	// Delete
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/clients/1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204, body %s", rec.Code, rec.Body)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_RunAuditRoute(t *testing.T) {
	eng := &stubEngine{result: &engine.Result{
		Success:    true,
		URL:        "https://acme.com",
		FormFactor: models.FormFactorMobile,
		Scores:     engine.Scores{Performance: 85},
		AuditID:    42,
	}}
	router, mock := newTestAPI(t, eng)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, url, platform`).
		WithArgs(int64(1)).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "mobile", nil, false, now))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clients/1/audit", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	var res engine.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.AuditID != 42 || res.Scores.Performance != 85 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAPI_ScheduleLifecycle(t *testing.T) {
	router, mock := newTestAPI(t, &stubEngine{})
	now := time.Now()

	// PUT schedule
	mock.ExpectQuery(`SELECT id, name, url, platform`).
		WithArgs(int64(1)).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "both", nil, false, now))
	mock.ExpectExec(`UPDATE clients SET schedule`).
		WithArgs("*/30 * * * *", true, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, name, url, platform`).
		WithArgs(int64(1)).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "both", "*/30 * * * *", true, now))
	// GET /schedules
	mock.ExpectQuery(`WHERE schedule IS NOT NULL`).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "both", "*/30 * * * *", true, now))
	// DELETE schedule
	mock.ExpectQuery(`SELECT id, name, url, platform`).
		WithArgs(int64(1)).
		WillReturnRows(clientRows().AddRow(1, "Acme", "https://acme.com", "both", "*/30 * * * *", true, now))
	mock.ExpectExec(`UPDATE clients SET schedule = NULL`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/clients/1/schedule",
		strings.NewReader(`{"expression": "*/30 * * * *"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("put schedule: got %d, want 200, body %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list schedules: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	var views []models.ScheduleView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || !views[0].JobActive {
		t.Errorf("the saved schedule should be running: %+v", views)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/clients/1/schedule", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete schedule: got %d, want 204, body %s", rec.Code, rec.Body)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_GetReportRoute(t *testing.T) {
	router, mock := newTestAPI(t, &stubEngine{})

	doc := []byte(`{"categories":{}}`)
	mock.ExpectQuery(`SELECT report FROM audits`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(doc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audits/42/report", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != string(doc) {
		t.Errorf("body: got %s", rec.Body)
	}
}

func TestAPI_SecurityHeaders(t *testing.T) {
	router, _ := newTestAPI(t, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q, want nosniff", got)
	}
}
