package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagepulse/pagepulse/internal/audit"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/handlers"
	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/middleware"
	"github.com/pagepulse/pagepulse/internal/repo"
)

// newRouter builds the full API router around the shared DB handle, the job
// registry and the audit runner.
func newRouter(database *sql.DB, cfg config.Config, registry *jobs.Registry, runner *audit.Runner) http.Handler {
	clients := repo.NewClientRepo(database)
	audits := repo.NewAuditRepo(database)

	clientH := &handlers.ClientHandler{Clients: clients, Registry: registry}
	auditH := &handlers.AuditHandler{Audits: audits, Clients: clients, Runner: runner}
	scheduleH := &handlers.ScheduleHandler{Clients: clients, Registry: registry}
	dashboardH := &handlers.DashboardHandler{Clients: clients}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	limiter := middleware.MutationRateLimiter(cfg.RateLimitPerMinute)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", clientH.ListClients)
		r.Get("/{id}/audits", auditH.ListClientAudits)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
			r.Post("/", clientH.CreateClient)
			r.Delete("/{id}", clientH.DeleteClient)
			r.Post("/{id}/audit", auditH.RunAudit)
			r.Put("/{id}/schedule", scheduleH.PutSchedule)
			r.Delete("/{id}/schedule", scheduleH.DeleteSchedule)
			r.Patch("/{id}/schedule/toggle", scheduleH.ToggleSchedule)
		})
	})

	r.Get("/audits/{id}/report", auditH.GetReport)
	r.Get("/schedules", scheduleH.ListSchedules)
	r.Get("/dashboard", dashboardH.GetDashboard)

	return r
}
