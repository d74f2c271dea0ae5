package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pagepulse/pagepulse/internal/models"
)

// MaxAuditHistory caps how many runs a single history query returns.
const MaxAuditHistory = 50

// Scores holds the five category scores of a completed audit.
type Scores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"best_practices"`
	SEO           int `json:"seo"`
	PWA           int `json:"pwa"`
}

// AuditRepo persists audit runs.
type AuditRepo struct {
	DB *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

// CreateRunning inserts a run in running state for a known client and returns its id.
func (r *AuditRepo) CreateRunning(ctx context.Context, clientID int64, formFactor string) (int64, error) {
	query := `
		INSERT INTO audits (client_id, form_factor, status)
		VALUES ($1, $2, 'running')
		RETURNING id
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, clientID, formFactor).Scan(&id)
	return id, err
}

// Complete transitions a running row to completed with its scores, metrics and report.
func (r *AuditRepo) Complete(ctx context.Context, id int64, s Scores, metrics, report []byte) error {
	query := `
		UPDATE audits
		SET performance = $1, accessibility = $2, best_practices = $3, seo = $4, pwa = $5,
		    metrics = $6, report = $7, status = 'completed'
		WHERE id = $8 AND status = 'running'
	`
	_, err := r.DB.ExecContext(ctx, query,
		s.Performance, s.Accessibility, s.BestPractices, s.SEO, s.PWA, metrics, report, id)
	return err
}

// Fail transitions a running row to failed with the error message. Scores stay null.
func (r *AuditRepo) Fail(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE audits
		SET status = 'failed', error = $1
		WHERE id = $2 AND status = 'running'
	`
	_, err := r.DB.ExecContext(ctx, query, message, id)
	return err
}

// CreateCompleted inserts a finished run with no owning client. Used when the
// engine is invoked without a client id: no running row exists beforehand.
func (r *AuditRepo) CreateCompleted(ctx context.Context, formFactor string, s Scores, metrics, report []byte) (int64, error) {
	query := `
		INSERT INTO audits (form_factor, performance, accessibility, best_practices, seo, pwa,
		                    metrics, report, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'completed')
		RETURNING id
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		formFactor, s.Performance, s.Accessibility, s.BestPractices, s.SEO, s.PWA, metrics, report).Scan(&id)
	return id, err
}

// ListByClient returns the client's most recent runs, newest first,
// capped at MaxAuditHistory. The report document is excluded; fetch it
// per run via GetReport.
func (r *AuditRepo) ListByClient(ctx context.Context, clientID int64, limit int) ([]models.AuditRun, error) {
	if limit <= 0 || limit > MaxAuditHistory {
		limit = MaxAuditHistory
	}
	query := `
		SELECT id, client_id, form_factor, performance, accessibility, best_practices, seo, pwa,
		       metrics, status, error, created_at
		FROM audits
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.AuditRun
	for rows.Next() {
		var a models.AuditRun
		if err := rows.Scan(&a.ID, &a.ClientID, &a.FormFactor,
			&a.Performance, &a.Accessibility, &a.BestPractices, &a.SEO, &a.PWA,
			&a.Metrics, &a.Status, &a.Error, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetReport returns the full report document of one run, or nil when the run
// does not exist or holds no report (running or failed runs).
func (r *AuditRepo) GetReport(ctx context.Context, id int64) (json.RawMessage, error) {
	var report json.RawMessage
	err := r.DB.QueryRowContext(ctx, `SELECT report FROM audits WHERE id = $1`, id).Scan(&report)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}
