// Package sqlite backs the payment store with a single-file SQLite database
// for single-node deployments.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// WAL keeps readers unblocked while the single writer commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			reference TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			direction TEXT NOT NULL,
			provider TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			country TEXT NOT NULL,
			account_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			transaction_id TEXT,
			provider_ref TEXT,
			client_id TEXT,
			supplier_id TEXT,
			callback_url TEXT NOT NULL DEFAULT '',
			failure_reason TEXT,
			refunded_amount INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_provider ON payments(provider)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_country ON payments(country)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at)`,

		`CREATE TABLE IF NOT EXISTS payment_events (
			id TEXT PRIMARY KEY,
			payment_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_data TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (payment_id) REFERENCES payments(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_events_payment ON payment_events(payment_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
