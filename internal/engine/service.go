// Package engine implements the audit engine: a headless-Chrome page audit
// that grades the five categories and persists the run outcome. The API
// service consumes it remotely through Client.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// AuditStore is the slice of the audit repository the engine writes through.
type AuditStore interface {
	CreateRunning(ctx context.Context, clientID int64, formFactor string) (int64, error)
	Complete(ctx context.Context, id int64, s repo.Scores, metrics, report []byte) error
	Fail(ctx context.Context, id int64, message string) error
	CreateCompleted(ctx context.Context, formFactor string, s repo.Scores, metrics, report []byte) (int64, error)
}

// Service runs audits and records their lifecycle.
type Service struct {
	audits         AuditStore
	log            *slog.Logger
	browserTimeout time.Duration
}

func NewService(audits AuditStore, log *slog.Logger, browserTimeout time.Duration) *Service {
	return &Service{audits: audits, log: log, browserTimeout: browserTimeout}
}

// Run executes one audit. With a client id present the run row is created in
// running state up front and transitioned exactly once to completed or
// failed; without one, only a completed row is recorded at the end.
func (s *Service) Run(ctx context.Context, url, formFactor string, clientID *int64) (*Result, error) {
	var runID int64
	haveRun := false
	if clientID != nil {
		id, err := s.audits.CreateRunning(ctx, *clientID, formFactor)
		if err != nil {
			return nil, fmt.Errorf("create audit run: %w", err)
		}
		runID = id
		haveRun = true
	}

	metrics.IncAuditRunsRunning()
	defer metrics.DecAuditRunsRunning()

	started := time.Now()
	facts, err := s.collect(ctx, url, formFactor)
	if err != nil {
		s.log.Error("audit failed", "url", url, "form_factor", formFactor, "error", err)
		metrics.IncAuditRunsTotal("failed")
		if haveRun {
			s.markFailed(runID, err)
		}
		return nil, err
	}

	scores, report := buildReport(url, formFactor, facts)
	metricsJSON, err := json.Marshal(report.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	dbScores := repo.Scores{
		Performance:   scores.Performance,
		Accessibility: scores.Accessibility,
		BestPractices: scores.BestPractices,
		SEO:           scores.SEO,
		PWA:           scores.PWA,
	}
	if haveRun {
		if err := s.audits.Complete(ctx, runID, dbScores, metricsJSON, reportJSON); err != nil {
			return nil, fmt.Errorf("complete audit run: %w", err)
		}
	} else {
		id, err := s.audits.CreateCompleted(ctx, formFactor, dbScores, metricsJSON, reportJSON)
		if err != nil {
			return nil, fmt.Errorf("record audit run: %w", err)
		}
		runID = id
	}

	metrics.IncAuditRunsTotal("completed")
	s.log.Info("audit completed",
		"url", url, "form_factor", formFactor, "audit_id", runID,
		"performance", scores.Performance, "duration_ms", time.Since(started).Milliseconds())

	return &Result{
		Success:    true,
		URL:        url,
		FormFactor: formFactor,
		Scores:     scores,
		AuditID:    runID,
	}, nil
}

// markFailed records the failed outcome on a detached context: the request
// context is usually already expired or cancelled when an audit fails.
func (s *Service) markFailed(runID int64, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.audits.Fail(ctx, runID, cause.Error()); err != nil {
		s.log.Error("could not mark audit run failed", "audit_id", runID, "error", err)
	}
}
