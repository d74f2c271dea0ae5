package handlers

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type emptySource struct{}

func (emptySource) ListScheduled(ctx context.Context) ([]models.Client, error) { return nil, nil }

func newTestRegistry(t *testing.T) *jobs.Registry {
	t.Helper()
	run := func(ctx context.Context, clientID int64, formFactor string) error { return nil }
	r := jobs.New(emptySource{}, run, testLogger(), time.Minute)
	t.Cleanup(r.Shutdown)
	return r
}

// withID injects the {id} chi route parameter the way the router would.
func withID(r *http.Request, id int64) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", strconv.FormatInt(id, 10))
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func clientColumnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "url", "platform", "schedule", "schedule_enabled", "created_at"})
}
