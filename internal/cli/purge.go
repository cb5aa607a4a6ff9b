package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/novahq/scribe/internal/storage"
)

// setDB allows tests to inject a database connection.
func (c *PurgeCommand) setDB(db *sql.DB) {
	c.db = db
}

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL Scribe data.")
		fmt.Println("  - All recorded sessions")
		fmt.Println("  - All compiled artifacts")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	// Open the configured DB, or use the injected one.
	var store *storage.SQLiteStore
	if c.db != nil {
		var err error
		store, err = storage.NewSQLiteStore(c.db)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
	} else {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		var db *sql.DB
		store, db, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"purged":  true,
			"message": "all recordings deleted",
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println("Purged all recordings. Scribe is empty.")
	return nil
}
