package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/novahq/scribe/internal/storage"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required")
	}

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

// executeWithStore fetches and prints the artifact (for testing).
func (c *ShowCommand) executeWithStore(store storage.Store) error {
	body, err := store.GetArtifact(context.Background(), c.ID)
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if c.Script {
		script, ok := doc["script"]
		if !ok || string(script) == "null" {
			return fmt.Errorf("session %s has no compiled script", c.ID)
		}
		var v interface{}
		if err := json.Unmarshal(script, &v); err != nil {
			return fmt.Errorf("decode script: %w", err)
		}
		return enc.Encode(v)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return enc.Encode(v)
}
