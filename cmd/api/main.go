package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagepulse/pagepulse/internal/audit"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/db"
	"github.com/pagepulse/pagepulse/internal/engine"
	"github.com/pagepulse/pagepulse/internal/jobs"
	"github.com/pagepulse/pagepulse/internal/repo"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	database, err := db.ConnectWithRetry(
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		10, 3*time.Second,
	)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.Migrate(cfg.DatabaseURL()); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	auditTimeout := time.Duration(cfg.AuditTimeoutSeconds) * time.Second
	clients := repo.NewClientRepo(database)
	runner := audit.NewRunner(clients, engine.NewClient(cfg.EngineURL), slog.Default(), auditTimeout)
	registry := jobs.New(clients,
		func(ctx context.Context, clientID int64, formFactor string) error {
			_, err := runner.Run(ctx, clientID, formFactor)
			return err
		},
		slog.Default(), auditTimeout,
	)

	restored, err := registry.RecoverAll(context.Background())
	if err != nil {
		slog.Error("schedule recovery failed", "error", err)
		os.Exit(1)
	}
	slog.Info("restored scheduled jobs", "count", restored)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, registry, runner),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.Port)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	registry.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// setupLogger installs the process-wide slog handler per LOG_FORMAT.
func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
