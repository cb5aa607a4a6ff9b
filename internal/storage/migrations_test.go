package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	err := runner.Run()
	require.NoError(t, err)

	expectedTables := []string{
		"sessions",
		"artifacts",
		"schema_migrations",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	expectedIndexes := []string{
		"idx_sessions_started_at",
		"idx_sessions_mode",
		"idx_sessions_type",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	// Run migrations twice
	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "should have exactly 1 migration recorded after double-run")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var version int
	var name string
	err := db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "initial_schema", name)
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	// In-memory databases use "memory" journal mode; WAL only takes
	// effect on file-backed DBs.
	assert.Contains(t, []string{"wal", "memory"}, journalMode,
		"journal_mode should be wal (file) or memory (in-memory)")
}

func TestMigrationRunner_ConfiguredJournalMode(t *testing.T) {
	// Journal modes only stick on file-backed databases; in-memory
	// always reports "memory".
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "scribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	runner.SetJournalMode("truncate")
	require.NoError(t, runner.Run())

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "truncate", mode)
}

func TestMigrationRunner_RejectsUnknownJournalMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	runner.SetJournalMode("frobnicate")

	err := runner.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported journal mode")
}

func TestMigrationRunner_ForeignKeys(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var fk int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign_keys should be enabled")
}

func TestMigrationRunner_ForeignKeyEnforcement(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	// Inserting an artifact for a non-existent session should fail
	_, err := db.Exec(
		"INSERT INTO artifacts (session_id, body) VALUES ('nonexistent', '{}')",
	)
	assert.Error(t, err, "foreign key constraint should prevent orphan artifact rows")
}

func TestMigrationRunner_SessionsTableColumns(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	_, err := db.Exec(`
		INSERT INTO sessions (id, mode, recording_type, started_at, stopped_at, event_count, mark_count, step_count)
		VALUES ('test-uuid', 'create_listing', 'full', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 12, 3, 5)
	`)
	require.NoError(t, err)

	var id, mode, recType string
	var events, marks, steps int
	err = db.QueryRow("SELECT id, mode, recording_type, event_count, mark_count, step_count FROM sessions WHERE id = 'test-uuid'").
		Scan(&id, &mode, &recType, &events, &marks, &steps)
	require.NoError(t, err)
	assert.Equal(t, "test-uuid", id)
	assert.Equal(t, "create_listing", mode)
	assert.Equal(t, "full", recType)
	assert.Equal(t, 12, events)
	assert.Equal(t, 3, marks)
	assert.Equal(t, 5, steps)
}

func TestMigrationRunner_ArtifactCascadeDelete(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	_, err := db.Exec(`
		INSERT INTO sessions (id, started_at, stopped_at) VALUES ('s1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO artifacts (session_id, body) VALUES ('s1', '{}')`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM sessions WHERE id = 's1'`)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM artifacts WHERE session_id = 's1'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "artifact should cascade on session delete")
}
