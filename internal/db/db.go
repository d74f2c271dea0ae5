package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

func Connect(
	host, port, name, user, password string,
) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, name, user, password,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// ConnectWithRetry calls Connect until it succeeds or attempts are exhausted,
// backing off between tries. The store being unreachable at boot is expected
// (the database container may still be starting); after boot, store errors
// surface to callers instead of being retried.
func ConnectWithRetry(
	host, port, name, user, password string,
	attempts int, backoff time.Duration,
) (*sql.DB, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := Connect(host, port, name, user, password)
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Warn("database not ready, retrying",
			"attempt", i+1, "attempts", attempts, "backoff", backoff.String(), "error", err)
		time.Sleep(backoff)
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
