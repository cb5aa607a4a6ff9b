package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// migration is one versioned schema step. Steps run inside a
// transaction and are recorded in schema_migrations, so a partially
// applied step never counts as done.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// journalModes are the SQLite journal modes the runner accepts from
// configuration.
var journalModes = map[string]bool{
	"delete":   true,
	"truncate": true,
	"persist":  true,
	"memory":   true,
	"wal":      true,
	"off":      true,
}

// MigrationRunner brings a recordings database up to the current
// schema version.
type MigrationRunner struct {
	db          *sql.DB
	journalMode string
	migrations  []migration
}

// NewMigrationRunner registers every known migration. The journal mode
// defaults to WAL; SetJournalMode overrides it.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db:          db,
		journalMode: "wal",
		migrations: []migration{
			{Version: 1, Name: "initial_schema", Apply: migrateV001},
		},
	}
}

// SetJournalMode selects the journal mode applied before migrations
// run (the sqlite_journal_mode config key). Empty keeps the WAL
// default.
func (r *MigrationRunner) SetJournalMode(mode string) {
	if mode != "" {
		r.journalMode = strings.ToLower(mode)
	}
}

// Run applies connection pragmas, creates the tracking table, then
// applies every migration not yet recorded.
func (r *MigrationRunner) Run() error {
	if !journalModes[r.journalMode] {
		return fmt.Errorf("unsupported journal mode %q", r.journalMode)
	}
	if _, err := r.db.Exec("PRAGMA journal_mode = " + r.journalMode); err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}

	// Artifacts hang off sessions by foreign key; without this pragma
	// SQLite lets orphan rows through.
	if _, err := r.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
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
		done, err := r.applied(m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if done {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (r *MigrationRunner) applied(version int) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// apply executes one migration transactionally and records it in the
// same transaction, so the step and its bookkeeping commit together.
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
