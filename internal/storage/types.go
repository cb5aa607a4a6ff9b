package storage

import "time"

// Session is the stored summary row for one finalized capture session.
type Session struct {
	ID            string
	Mode          string
	RecordingType string
	StartedAt     time.Time
	StoppedAt     time.Time
	EventCount    int64
	MarkCount     int64
	StepCount     int64
	CreatedAt     time.Time
}

// Stats holds aggregate statistics about the artifact store.
type Stats struct {
	TotalSessions     int64
	TotalEvents       int64
	OldestSession     time.Time
	NewestSession     time.Time
	DatabaseSizeBytes int64
	ModeCounts        []ModeCount
}

// ModeCount pairs a workflow mode with its session count.
type ModeCount struct {
	Mode  string
	Count int64
}
