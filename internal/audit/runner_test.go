package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pagepulse/pagepulse/internal/engine"
	"github.com/pagepulse/pagepulse/internal/models"
)

type stubClients struct {
	client *models.Client
	err    error
}

func (s *stubClients) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	return s.client, s.err
}

type stubEngine struct {
	result *engine.Result
	err    error

	gotURL        string
	gotFormFactor string
	gotClientID   *int64
}

func (s *stubEngine) Audit(ctx context.Context, url, formFactor string, clientID *int64) (*engine.Result, error) {
	s.gotURL = url
	s.gotFormFactor = formFactor
	s.gotClientID = clientID
	return s.result, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Run_ClientNotFound(t *testing.T) {
	r := NewRunner(&stubClients{client: nil}, &stubEngine{}, testLogger(), time.Minute)

	_, err := r.Run(context.Background(), 42, models.FormFactorMobile)
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestRunner_Run_Success(t *testing.T) {
	c := &models.Client{ID: 7, URL: "https://example.com", Platform: models.PlatformBoth}
	eng := &stubEngine{result: &engine.Result{
		Success:    true,
		URL:        c.URL,
		FormFactor: models.FormFactorDesktop,
		AuditID:    99,
	}}
	r := NewRunner(&stubClients{client: c}, eng, testLogger(), time.Minute)

	res, err := r.Run(context.Background(), 7, models.FormFactorDesktop)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AuditID != 99 {
		t.Errorf("audit id: got %d, want 99", res.AuditID)
	}
	if eng.gotURL != "https://example.com" {
		t.Errorf("engine url: got %q", eng.gotURL)
	}
	if eng.gotFormFactor != models.FormFactorDesktop {
		t.Errorf("form factor: got %q, want desktop", eng.gotFormFactor)
	}
	if eng.gotClientID == nil || *eng.gotClientID != 7 {
		t.Errorf("client id: got %v, want 7", eng.gotClientID)
	}
}

func TestRunner_Run_PlatformOverridesRequest(t *testing.T) {
	c := &models.Client{ID: 3, URL: "https://example.com", Platform: models.PlatformMobile}
	eng := &stubEngine{result: &engine.Result{Success: true}}
	r := NewRunner(&stubClients{client: c}, eng, testLogger(), time.Minute)

	if _, err := r.Run(context.Background(), 3, models.FormFactorDesktop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if eng.gotFormFactor != models.FormFactorMobile {
		t.Errorf("form factor: got %q, want mobile (platform preference wins)", eng.gotFormFactor)
	}
}

func TestRunner_Run_EngineError(t *testing.T) {
	c := &models.Client{ID: 1, URL: "https://example.com", Platform: models.PlatformBoth}
	eng := &stubEngine{err: errors.New("browser launch failed")}
	r := NewRunner(&stubClients{client: c}, eng, testLogger(), time.Minute)

	_, err := r.Run(context.Background(), 1, models.FormFactorMobile)
	if !errors.Is(err, ErrAuditEngine) {
		t.Fatalf("expected ErrAuditEngine, got %v", err)
	}
}
