package models

import "time"

// Platform preference values for a client.
const (
	PlatformMobile  = "mobile"
	PlatformDesktop = "desktop"
	PlatformBoth    = "both"
)

// Form factors an audit actually runs under. "both" is a client preference,
// never a form factor.
const (
	FormFactorMobile  = "mobile"
	FormFactorDesktop = "desktop"
)

// ValidPlatform reports whether p is an accepted platform preference.
func ValidPlatform(p string) bool {
	return p == PlatformMobile || p == PlatformDesktop || p == PlatformBoth
}

// Client is a registered site to be periodically audited.
type Client struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	Platform        string    `json:"platform"` // mobile, desktop, both
	Schedule        *string   `json:"schedule"` // cron expression, nil when unscheduled
	ScheduleEnabled bool      `json:"schedule_enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

// ClientSummary is a client joined with its most recent audit highlights,
// as served by GET /clients.
type ClientSummary struct {
	Client
	LastAuditAt     *time.Time `json:"last_audit_at"`
	LastPerformance *int       `json:"last_performance"`
	JobActive       bool       `json:"job_active"`
}

// ScheduleView is one row of GET /schedules: every client holding a cron
// expression, with the live-timer flag.
type ScheduleView struct {
	ClientID  int64  `json:"client_id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Schedule  string `json:"schedule"`
	Enabled   bool   `json:"enabled"`
	JobActive bool   `json:"job_active"`
}
