package database

import (
	"database/sql"
	"fmt"

	"recovery-plan/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func New(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	d := &Database{db: db}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("✅ Database initialized", "path", path)
	return d, nil
}

func (d *Database) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS daily_plans (
			session_id TEXT NOT NULL,
			condition_key TEXT NOT NULL,
			plan_date TEXT NOT NULL,
			tasks TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, condition_key, plan_date)
		)`,

		`CREATE TABLE IF NOT EXISTS daily_progress (
			session_id TEXT NOT NULL,
			condition_key TEXT NOT NULL,
			plan_date TEXT NOT NULL,
			completed_tasks TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, condition_key, plan_date)
		)`,

		`CREATE TABLE IF NOT EXISTS local_storage (
			client_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (client_id, key)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_progress_session ON daily_progress(session_id, condition_key)`,
		`CREATE INDEX IF NOT EXISTS idx_local_key ON local_storage(key)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}
