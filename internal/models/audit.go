package models

import (
	"encoding/json"
	"time"
)

// AuditRun status values. A run is created running and transitions exactly
// once to completed or failed.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AuditRun is one execution of the audit engine against a URL.
// Score columns are nil until the run completes; Error is nil unless it failed.
type AuditRun struct {
	ID            int64           `json:"id"`
	ClientID      *int64          `json:"client_id,omitempty"`
	FormFactor    string          `json:"form_factor"`
	Performance   *int            `json:"performance"`
	Accessibility *int            `json:"accessibility"`
	BestPractices *int            `json:"best_practices"`
	SEO           *int            `json:"seo"`
	PWA           *int            `json:"pwa"`
	Metrics       json.RawMessage `json:"metrics,omitempty"`
	Status        string          `json:"status"`
	Error         *string         `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DashboardRow is one row of GET /dashboard: a client joined with its single
// most recent audit (nil when the client has never been audited).
type DashboardRow struct {
	Client
	LastAudit *AuditRun `json:"last_audit"`
}
