package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New opens the local SQLite store at the given path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes; a single writer connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ SQLite database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	log.Println("🔍 Checking database schema...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS medications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			dosage TEXT NOT NULL,
			times TEXT NOT NULL,          -- JSON array of "HH:MM" strings
			start_date TIMESTAMP NOT NULL,
			duration TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			current_supply INTEGER NOT NULL DEFAULT 0,
			total_supply INTEGER NOT NULL DEFAULT 0,
			refill_at INTEGER NOT NULL DEFAULT 0,
			reminder_enabled INTEGER NOT NULL DEFAULT 1,
			refill_reminder INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_user ON medications(user_id)`,
		`CREATE TABLE IF NOT EXISTS dose_events (
			id TEXT PRIMARY KEY,
			medication_id TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dose_events_medication ON dose_events(medication_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS settings (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			dodo_subscription_id TEXT NOT NULL DEFAULT '',
			dodo_customer_id TEXT NOT NULL DEFAULT '',
			tier TEXT NOT NULL DEFAULT 'free',
			status TEXT NOT NULL DEFAULT 'active',
			current_period_start TIMESTAMP,
			current_period_end TIMESTAMP,
			cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scan_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			scanned_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_log_user ON scan_log(user_id, scanned_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run schema statement: %w", err)
		}
	}

	log.Println("✅ Database initialized successfully")
	return nil
}
