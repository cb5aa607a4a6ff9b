package storage

import "database/sql"

// migrateV001 creates the initial schema: session summaries plus the
// artifact bodies they own. Every statement uses IF NOT EXISTS for
// idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			mode           TEXT NOT NULL DEFAULT '',
			recording_type TEXT NOT NULL DEFAULT '',
			started_at     DATETIME NOT NULL,
			stopped_at     DATETIME NOT NULL,
			event_count    INTEGER NOT NULL DEFAULT 0,
			mark_count     INTEGER NOT NULL DEFAULT 0,
			step_count     INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS artifacts (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
			body       TEXT NOT NULL,
			byte_size  INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_mode       ON sessions(mode)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_type       ON sessions(recording_type)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
