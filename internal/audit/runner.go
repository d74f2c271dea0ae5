// Package audit orchestrates one audit run: resolve the client's effective
// form factor, invoke the audit engine, surface the outcome. Scheduling
// retries is the job registry's concern, never this package's.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagepulse/pagepulse/internal/engine"
	"github.com/pagepulse/pagepulse/internal/models"
)

var (
	// ErrClientNotFound means the client id resolves to no stored client.
	ErrClientNotFound = errors.New("client not found")
	// ErrAuditEngine wraps an engine invocation failure or timeout.
	ErrAuditEngine = errors.New("audit engine failure")
)

// ClientSource looks up clients for form-factor resolution.
type ClientSource interface {
	GetByID(ctx context.Context, id int64) (*models.Client, error)
}

// EngineInvoker is the audit engine boundary, implemented by engine.Client.
type EngineInvoker interface {
	Audit(ctx context.Context, url, formFactor string, clientID *int64) (*engine.Result, error)
}

// Runner resolves and executes audits for registered clients.
type Runner struct {
	clients ClientSource
	engine  EngineInvoker
	log     *slog.Logger
	timeout time.Duration
}

// NewRunner returns a Runner. timeout bounds a single engine invocation;
// audits take minutes, so it should be generous (180s default).
func NewRunner(clients ClientSource, eng EngineInvoker, log *slog.Logger, timeout time.Duration) *Runner {
	return &Runner{clients: clients, engine: eng, log: log, timeout: timeout}
}

// Run executes one audit for the client. The engine owns the run record's
// lifecycle; a failure here is terminal for this invocation, there is no
// local retry.
func (r *Runner) Run(ctx context.Context, clientID int64, requested string) (*engine.Result, error) {
	c, err := r.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("look up client %d: %w", clientID, err)
	}
	if c == nil {
		return nil, ErrClientNotFound
	}

	formFactor := ResolveFormFactor(c.Platform, requested)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.engine.Audit(ctx, c.URL, formFactor, &c.ID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrAuditEngine, r.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuditEngine, err)
	}

	r.log.Info("audit run finished",
		"client_id", clientID, "form_factor", formFactor, "audit_id", res.AuditID)
	return res, nil
}
