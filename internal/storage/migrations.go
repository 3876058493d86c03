package storage

import (
	"database/sql"
	"fmt"
)

type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner brings an events database up to the latest schema.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "events", Apply: migrateEvents},
			{Version: 2, Name: "comment_events", Apply: migrateCommentEvents},
		},
	}
}

// Run applies every migration not yet recorded in schema_migrations, each
// in its own transaction.
func (r *MigrationRunner) Run() error {
	if _, err := r.db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// Version returns the highest applied migration, 0 for a fresh database.
func (r *MigrationRunner) Version() (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), nil
}

func (r *MigrationRunner) isApplied(version int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

func migrateEvents(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			type          TEXT    NOT NULL,
			post_id       INTEGER NOT NULL,
			ts            INTEGER NOT NULL,
			score         INTEGER NOT NULL DEFAULT 0,
			dwell_ms      INTEGER NOT NULL DEFAULT 0,
			author        TEXT    NOT NULL DEFAULT '',
			domain        TEXT    NOT NULL DEFAULT '',
			title         TEXT    NOT NULL DEFAULT '',
			topics        TEXT    NOT NULL DEFAULT '[]',
			url           TEXT    NOT NULL DEFAULT '',
			comment_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX idx_events_type_post ON events(type, post_id)`,
		`CREATE INDEX idx_events_ts ON events(ts)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func migrateCommentEvents(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE events ADD COLUMN comment_id INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE events ADD COLUMN comment_user TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE events ADD COLUMN comment_content TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE events ADD COLUMN comment_time INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX idx_events_type_comment ON events(type, comment_id)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
