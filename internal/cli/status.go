package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/novahq/scribe/internal/config"
	"github.com/novahq/scribe/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string          `json:"version"`
	DatabasePath      string          `json:"database_path"`
	DatabaseSizeBytes int64           `json:"database_size_bytes"`
	TotalSessions     int64           `json:"total_sessions"`
	TotalEvents       int64           `json:"total_events"`
	OldestSession     string          `json:"oldest_session,omitempty"`
	NewestSession     string          `json:"newest_session,omitempty"`
	Modes             []modeCountJSON `json:"modes"`
	DaemonRunning     bool            `json:"daemon_running"`
}

type modeCountJSON struct {
	Mode  string `json:"mode"`
	Count int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
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

	return c.executeWithStore(cfg, store, db)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(cfg *config.Config, store *storage.SQLiteStore, db *sql.DB) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, err := databasePath(cfg)
	if err != nil {
		return err
	}
	dbSize := getDatabaseSize(db, dbPath)

	daemonRunning := checkDaemon(cfg.Daemon.Host, cfg.Daemon.Port)

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, dbPath, dbSize, daemonRunning)
	}
	return c.printStatusHuman(stats, dbPath, dbSize, daemonRunning)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath string, dbSize int64, daemonRunning bool) error {
	fmt.Println("Scribe Status")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Sessions:      %s\n", formatNumber(stats.TotalSessions))
	fmt.Printf("Events:        %s\n", formatNumber(stats.TotalEvents))

	if stats.TotalSessions > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestSession.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestSession.Local().Format("2006-01-02"))
	}

	if len(stats.ModeCounts) > 0 {
		fmt.Println()
		fmt.Println("Modes:")
		for _, m := range stats.ModeCounts {
			fmt.Printf("  %-20s %s\n", m.Mode, formatNumber(m.Count))
		}
	}

	fmt.Println()
	if daemonRunning {
		fmt.Println("Daemon:        running")
	} else {
		fmt.Println("Daemon:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath string, dbSize int64, daemonRunning bool) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		TotalSessions:     stats.TotalSessions,
		TotalEvents:       stats.TotalEvents,
		Modes:             make([]modeCountJSON, len(stats.ModeCounts)),
		DaemonRunning:     daemonRunning,
	}

	if stats.TotalSessions > 0 {
		out.OldestSession = stats.OldestSession.UTC().Format(time.RFC3339)
		out.NewestSession = stats.NewestSession.UTC().Format(time.RFC3339)
	}

	for i, m := range stats.ModeCounts {
		out.Modes[i] = modeCountJSON{Mode: m.Mode, Count: m.Count}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkDaemon attempts an HTTP GET against the daemon health endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(host string, port int) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s:%d/healthz", host, port))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
