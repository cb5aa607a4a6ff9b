package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/novahq/scribe/internal/storage"
)

// sessionJSON is one row of the sessions command's JSON output.
type sessionJSON struct {
	ID            string `json:"id"`
	Mode          string `json:"mode"`
	RecordingType string `json:"recording_type"`
	StartedAt     string `json:"started_at"`
	DurationMs    int64  `json:"duration_ms"`
	EventCount    int64  `json:"event_count"`
	MarkCount     int64  `json:"mark_count"`
	StepCount     int64  `json:"step_count"`
}

// Execute implements the go-flags Commander interface for SessionsCommand.
func (c *SessionsCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store)
}

// executeWithStore runs the listing against a provided store (for testing).
func (c *SessionsCommand) executeWithStore(store storage.Store) error {
	sessions, err := store.ListSessions(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := make([]sessionJSON, len(sessions))
		for i, s := range sessions {
			out[i] = sessionJSON{
				ID:            s.ID,
				Mode:          s.Mode,
				RecordingType: s.RecordingType,
				StartedAt:     s.StartedAt.UTC().Format(time.RFC3339),
				DurationMs:    s.StoppedAt.Sub(s.StartedAt).Milliseconds(),
				EventCount:    s.EventCount,
				MarkCount:     s.MarkCount,
				StepCount:     s.StepCount,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(sessions) == 0 {
		fmt.Println("No recorded sessions.")
		return nil
	}

	fmt.Printf("%-36s  %-12s  %-16s  %7s  %6s  %6s\n",
		"ID", "MODE", "STARTED", "EVENTS", "MARKS", "STEPS")
	for _, s := range sessions {
		fmt.Printf("%-36s  %-12s  %-16s  %7d  %6d  %6d\n",
			s.ID, s.Mode,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.EventCount, s.MarkCount, s.StepCount)
	}
	return nil
}
