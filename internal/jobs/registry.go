// Package jobs owns the process-wide registry of recurring audit jobs:
// one live cron timer per client, with replace-before-insert semantics and
// boot-time recovery from the stored schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/models"
	"github.com/robfig/cron/v3"
)

// ErrInvalidExpression is returned when a cron expression fails to parse.
// Nothing is mutated in that case.
var ErrInvalidExpression = errors.New("invalid cron expression")

// parser accepts the standard 5-field grammar plus an optional leading
// seconds field and @-descriptors.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateExpression checks a cron expression without touching the registry.
// Handlers call this before persisting a schedule.
func ValidateExpression(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return nil
}

// RunFunc executes one audit for a client. Firing failures are logged by the
// registry and never stop future firings.
type RunFunc func(ctx context.Context, clientID int64, formFactor string) error

// ScheduleSource lists the stored schedules to restore at boot.
type ScheduleSource interface {
	ListScheduled(ctx context.Context) ([]models.Client, error)
}

type entry struct {
	id   cron.EntryID
	expr string
}

// Registry maps client ids to live cron timers. All map mutations happen
// under one coarse mutex; contention is a handful of schedule edits a day.
type Registry struct {
	cron    *cron.Cron
	run     RunFunc
	clients ScheduleSource
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries map[int64]entry
}

// New returns a started registry. run is invoked on every firing with the
// default (mobile) form-factor request; the client's own platform preference
// still wins downstream. timeout bounds one firing end to end.
func New(clients ScheduleSource, run RunFunc, log *slog.Logger, timeout time.Duration) *Registry {
	c := cron.New(cron.WithParser(parser))
	c.Start()
	return &Registry{
		cron:    c,
		run:     run,
		clients: clients,
		log:     log,
		timeout: timeout,
		entries: make(map[int64]entry),
	}
}

// Start installs a recurring timer for the client. If a timer already exists
// for the id it is stopped and discarded first, so at most one timer is ever
// live per client. Returns ErrInvalidExpression for malformed expressions.
func (r *Registry) Start(clientID int64, expr string) error {
	if err := ValidateExpression(expr); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[clientID]; ok {
		r.cron.Remove(old.id)
		delete(r.entries, clientID)
	}

	id, err := r.cron.AddFunc(expr, func() { r.fire(clientID) })
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	r.entries[clientID] = entry{id: id, expr: expr}
	metrics.SetJobsActive(len(r.entries))
	r.log.Info("job started", "client_id", clientID, "cron", expr)
	return nil
}

// fire runs one scheduled audit. cron already invokes each entry on its own
// goroutine; a failure here is logged and discarded so the schedule survives
// any number of bad firings. An in-flight run is never cancelled by Stop.
func (r *Registry) fire(clientID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.run(ctx, clientID, models.FormFactorMobile); err != nil {
		r.log.Error("scheduled audit failed", "client_id", clientID, "error", err)
	}
}

// Stop removes the client's timer if one exists. Idempotent; only the future
// schedule is cancelled, never an audit already in flight.
func (r *Registry) Stop(clientID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[clientID]; ok {
		r.cron.Remove(e.id)
		delete(r.entries, clientID)
		metrics.SetJobsActive(len(r.entries))
		r.log.Info("job stopped", "client_id", clientID)
	}
}

// IsActive reports whether the client has a live timer.
func (r *Registry) IsActive(clientID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[clientID]
	return ok
}

// Expression returns the cron expression the client's timer was started with.
func (r *Registry) Expression(clientID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[clientID]
	return e.expr, ok
}

// RecoverAll restores jobs for every stored, enabled schedule and returns the
// number restored. A single client's invalid stored expression is logged and
// skipped; stored expressions are never re-validated after writing, so one
// bad row must not abort the rest of the boot recovery.
func (r *Registry) RecoverAll(ctx context.Context) (int, error) {
	list, err := r.clients.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list scheduled clients: %w", err)
	}

	restored := 0
	for _, c := range list {
		if c.Schedule == nil {
			continue
		}
		if err := r.Start(c.ID, *c.Schedule); err != nil {
			r.log.Warn("skipping stored schedule", "client_id", c.ID, "cron", *c.Schedule, "error", err)
			continue
		}
		restored++
	}
	r.log.Info("schedule recovery complete", "restored", restored, "total", len(list))
	return restored, nil
}

// Shutdown stops the cron runner and drops all entries. In-flight firings are
// left to finish; there is no mid-flight abort short of process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cron.Stop()
	r.entries = make(map[int64]entry)
	metrics.SetJobsActive(0)
}
