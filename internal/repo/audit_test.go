package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAuditRepo_CreateRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO audits \(client_id, form_factor, status\)`).
		WithArgs(int64(7), "mobile").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	r := NewAuditRepo(db)
	id, err := r.CreateRunning(context.Background(), 7, "mobile")
	if err != nil {
		t.Fatalf("CreateRunning: %v", err)
	}
	if id != 42 {
		t.Errorf("id: got %d, want 42", id)
	}
}

func TestAuditRepo_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := Scores{Performance: 85, Accessibility: 90, BestPractices: 70, SEO: 95, PWA: 40}
	metrics := []byte(`{"lcp_ms":1200}`)
	report := []byte(`{"categories":[]}`)

	mock.ExpectExec(`UPDATE audits`).
		WithArgs(85, 90, 70, 95, 40, metrics, report, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewAuditRepo(db)
	if err := r.Complete(context.Background(), 42, s, metrics, report); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE audits`).
		WithArgs("navigation timed out after 2m0s", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewAuditRepo(db)
	if err := r.Fail(context.Background(), 42, "navigation timed out after 2m0s"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_CreateCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := Scores{Performance: 60, Accessibility: 80, BestPractices: 75, SEO: 88, PWA: 20}
	metrics := []byte(`{}`)
	report := []byte(`{}`)

	mock.ExpectQuery(`INSERT INTO audits \(form_factor`).
		WithArgs("desktop", 60, 80, 75, 88, 20, metrics, report).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	r := NewAuditRepo(db)
	id, err := r.CreateCompleted(context.Background(), "desktop", s, metrics, report)
	if err != nil {
		t.Fatalf("CreateCompleted: %v", err)
	}
	if id != 9 {
		t.Errorf("id: got %d, want 9", id)
	}
}

func auditRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "form_factor", "performance", "accessibility", "best_practices",
		"seo", "pwa", "metrics", "status", "error", "created_at"})
}

func TestAuditRepo_ListByClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM audits`).
		WithArgs(int64(7), 10).
		WillReturnRows(auditRows().
			AddRow(2, 7, "mobile", 85, 90, 70, 95, 40, []byte(`{}`), "completed", nil, now).
			AddRow(1, 7, "mobile", nil, nil, nil, nil, nil, nil, "failed", "browser launch failed", now.Add(-time.Hour)))

	r := NewAuditRepo(db)
	list, err := r.ListByClient(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}
	if list[0].Status != "completed" || list[0].Performance == nil || *list[0].Performance != 85 {
		t.Errorf("unexpected first run: %+v", list[0])
	}
	if list[1].Status != "failed" || list[1].Performance != nil || list[1].Error == nil {
		t.Errorf("failed run must carry an error and null scores: %+v", list[1])
	}
}

func TestAuditRepo_ListByClient_ClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// Zero and oversized limits both collapse to the cap.
	mock.ExpectQuery(`FROM audits`).
		WithArgs(int64(7), MaxAuditHistory).
		WillReturnRows(auditRows())
	mock.ExpectQuery(`FROM audits`).
		WithArgs(int64(7), MaxAuditHistory).
		WillReturnRows(auditRows())

	r := NewAuditRepo(db)
	if _, err := r.ListByClient(context.Background(), 7, 0); err != nil {
		t.Fatalf("ListByClient(0): %v", err)
	}
	if _, err := r.ListByClient(context.Background(), 7, 500); err != nil {
		t.Fatalf("ListByClient(500): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_GetReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	doc := []byte(`{"categories":[{"id":"performance"}]}`)
	mock.ExpectQuery(`SELECT report FROM audits`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(doc))

	r := NewAuditRepo(db)
	report, err := r.GetReport(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if string(report) != string(doc) {
		t.Errorf("report: got %s", report)
	}
}

func TestAuditRepo_GetReport_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT report FROM audits`).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"report"}))

	r := NewAuditRepo(db)
	report, err := r.GetReport(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil report, got %s", report)
	}
}
