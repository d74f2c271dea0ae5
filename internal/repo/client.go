package repo

import (
	"context"
	"database/sql"

	"github.com/pagepulse/pagepulse/internal/models"
)

// ClientRepo persists registered clients.
type ClientRepo struct {
	DB *sql.DB
}

// NewClientRepo returns a new ClientRepo.
func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{DB: db}
}

const clientColumns = "id, name, url, platform, schedule, schedule_enabled, created_at"

func scanClient(row interface{ Scan(...any) error }, c *models.Client) error {
	return row.Scan(&c.ID, &c.Name, &c.URL, &c.Platform, &c.Schedule, &c.ScheduleEnabled, &c.CreatedAt)
}

// Create inserts a new client. Name collisions return ErrDuplicateName;
// (url, platform) collisions return ErrDuplicateTarget.
func (r *ClientRepo) Create(ctx context.Context, name, url, platform string) (*models.Client, error) {
	query := `
		INSERT INTO clients (name, url, platform)
		VALUES ($1, $2, $3)
		RETURNING ` + clientColumns
	c := &models.Client{}
	if err := scanClient(r.DB.QueryRowContext(ctx, query, name, url, platform), c); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return c, nil
}

// GetByID returns one client by id, or nil when absent.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	c := &models.Client{}
	err := scanClient(r.DB.QueryRowContext(ctx, query, id), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all clients joined with the timestamp and performance score of
// their most recent completed audit. JobActive is filled by the caller from
// the job registry, never stored.
func (r *ClientRepo) List(ctx context.Context) ([]models.ClientSummary, error) {
	query := `
		SELECT c.id, c.name, c.url, c.platform, c.schedule, c.schedule_enabled, c.created_at,
		       a.created_at, a.performance
		FROM clients c
		LEFT JOIN LATERAL (
			SELECT created_at, performance
			FROM audits
			WHERE client_id = c.id AND status = 'completed'
			ORDER BY created_at DESC
			LIMIT 1
		) a ON true
		ORDER BY c.id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ClientSummary
	for rows.Next() {
		var s models.ClientSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Platform, &s.Schedule, &s.ScheduleEnabled,
			&s.CreatedAt, &s.LastAuditAt, &s.LastPerformance); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListScheduled returns every client holding a cron expression with scheduling
// enabled. The job registry restores these at boot.
func (r *ClientRepo) ListScheduled(ctx context.Context) ([]models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE schedule IS NOT NULL AND schedule_enabled = true
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListWithSchedule returns every client holding a cron expression, enabled or not.
func (r *ClientRepo) ListWithSchedule(ctx context.Context) ([]models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE schedule IS NOT NULL
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SetSchedule stores a cron expression and its enabled flag for the client.
func (r *ClientRepo) SetSchedule(ctx context.Context, id int64, expr string, enabled bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET schedule = $1, schedule_enabled = $2 WHERE id = $3`,
		expr, enabled, id,
	)
	return err
}

// ClearSchedule removes the client's cron expression and disables scheduling.
func (r *ClientRepo) ClearSchedule(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET schedule = NULL, schedule_enabled = false WHERE id = $1`,
		id,
	)
	return err
}

// SetScheduleEnabled flips the enabled flag without touching the expression.
func (r *ClientRepo) SetScheduleEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET schedule_enabled = $1 WHERE id = $2`,
		enabled, id,
	)
	return err
}

// Delete removes a client; its audits cascade at the database level.
func (r *ClientRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}

// Dashboard returns all clients joined with their single most recent audit of
// any status, for the dashboard view.
func (r *ClientRepo) Dashboard(ctx context.Context) ([]models.DashboardRow, error) {
	query := `
		SELECT c.id, c.name, c.url, c.platform, c.schedule, c.schedule_enabled, c.created_at,
		       a.id, a.form_factor, a.performance, a.accessibility, a.best_practices, a.seo, a.pwa,
		       a.metrics, a.status, a.error, a.created_at
		FROM clients c
		LEFT JOIN LATERAL (
			SELECT id, form_factor, performance, accessibility, best_practices, seo, pwa,
			       metrics, status, error, created_at
			FROM audits
			WHERE client_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) a ON true
		ORDER BY c.id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.DashboardRow
	for rows.Next() {
		var d models.DashboardRow
		var (
			auditID    sql.NullInt64
			formFactor sql.NullString
			status     sql.NullString
			auditAt    sql.NullTime
			a          models.AuditRun
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.URL, &d.Platform, &d.Schedule, &d.ScheduleEnabled, &d.CreatedAt,
			&auditID, &formFactor, &a.Performance, &a.Accessibility, &a.BestPractices, &a.SEO, &a.PWA,
			&a.Metrics, &status, &a.Error, &auditAt); err != nil {
			return nil, err
		}
		if auditID.Valid {
			a.ID = auditID.Int64
			a.ClientID = &d.ID
			a.FormFactor = formFactor.String
			a.Status = status.String
			a.CreatedAt = auditAt.Time
			d.LastAudit = &a
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
