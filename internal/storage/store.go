package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/novahq/scribe/internal/synth"
)

// Store defines the interface for artifact persistence.
type Store interface {
	SaveArtifact(ctx context.Context, artifact *synth.Artifact) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	GetArtifact(ctx context.Context, sessionID string) ([]byte, error)
	DeleteSession(ctx context.Context, id string) error
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertSession  *sql.Stmt
	insertArtifact *sql.Stmt
	getSession     *sql.Stmt
	getArtifact    *sql.Stmt
	deleteSession  *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and
// migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertSession, err = s.db.Prepare(`
		INSERT INTO sessions (id, mode, recording_type, started_at, stopped_at, event_count, mark_count, step_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertArtifact, err = s.db.Prepare(`
		INSERT INTO artifacts (session_id, body, byte_size)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getSession, err = s.db.Prepare(`
		SELECT id, mode, recording_type, started_at, stopped_at, event_count, mark_count, step_count, created_at
		FROM sessions WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.getArtifact, err = s.db.Prepare(`
		SELECT body FROM artifacts WHERE session_id = ?
	`)
	if err != nil {
		return err
	}

	s.deleteSession, err = s.db.Prepare(`DELETE FROM sessions WHERE id = ?`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// SaveArtifact stores a finalized session summary and its serialized
// artifact body in one transaction.
func (s *SQLiteStore) SaveArtifact(ctx context.Context, artifact *synth.Artifact) error {
	if artifact == nil {
		return fmt.Errorf("nil artifact")
	}

	body, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	stepCount := 0
	if artifact.Script != nil {
		stepCount = len(artifact.Script.Steps)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	meta := artifact.Session
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, mode, recording_type, started_at, stopped_at, event_count, mark_count, step_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.SessionID, meta.Mode, meta.RecordingType,
		meta.StartedAt.UTC().Format(time.RFC3339),
		meta.StoppedAt.UTC().Format(time.RFC3339),
		len(artifact.Events), len(artifact.Marks), stepCount,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO artifacts (session_id, body, byte_size) VALUES (?, ?, ?)",
		meta.SessionID, string(body), len(body),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}

	return tx.Commit()
}

// GetSession retrieves a single session summary by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var startedStr, stoppedStr, createdStr string

	err := s.getSession.QueryRowContext(ctx, id).Scan(
		&sess.ID, &sess.Mode, &sess.RecordingType,
		&startedStr, &stoppedStr,
		&sess.EventCount, &sess.MarkCount, &sess.StepCount, &createdStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.StartedAt, _ = parseTimestamp(startedStr)
	sess.StoppedAt, _ = parseTimestamp(stoppedStr)
	sess.CreatedAt, _ = parseTimestamp(createdStr)
	return &sess, nil
}

// ListSessions returns the newest session summaries, most recent first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, recording_type, started_at, stopped_at, event_count, mark_count, step_count, created_at
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var startedStr, stoppedStr, createdStr string
		if err := rows.Scan(
			&sess.ID, &sess.Mode, &sess.RecordingType,
			&startedStr, &stoppedStr,
			&sess.EventCount, &sess.MarkCount, &sess.StepCount, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, _ = parseTimestamp(startedStr)
		sess.StoppedAt, _ = parseTimestamp(stoppedStr)
		sess.CreatedAt, _ = parseTimestamp(createdStr)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// GetArtifact returns the raw serialized artifact for a session.
func (s *SQLiteStore) GetArtifact(ctx context.Context, sessionID string) ([]byte, error) {
	var body string
	err := s.getArtifact.QueryRowContext(ctx, sessionID).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("artifact for session %s not found", sessionID)
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return []byte(body), nil
}

// DeleteSession removes a session; the artifact cascades.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.deleteSession.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// PurgeAll deletes every stored session and artifact.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM artifacts",
		"DELETE FROM sessions",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
	}
	return tx.Commit()
}

// GetStats aggregates store-wide statistics.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(event_count), 0) FROM sessions",
	).Scan(&stats.TotalSessions, &stats.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	if stats.TotalSessions > 0 {
		var oldest, newest string
		err = s.db.QueryRowContext(ctx,
			"SELECT MIN(started_at), MAX(started_at) FROM sessions",
		).Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("session range: %w", err)
		}
		stats.OldestSession, _ = parseTimestamp(oldest)
		stats.NewestSession, _ = parseTimestamp(newest)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT mode, COUNT(*) FROM sessions GROUP BY mode ORDER BY COUNT(*) DESC LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("mode counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mc ModeCount
		if err := rows.Scan(&mc.Mode, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan mode count: %w", err)
		}
		stats.ModeCounts = append(stats.ModeCounts, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Database size via page pragmas.
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	return stats, nil
}

// Close releases prepared statements. The caller owns the *sql.DB.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.insertSession, s.insertArtifact, s.getSession, s.getArtifact, s.deleteSession,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
