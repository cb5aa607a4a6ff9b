package cli

import "database/sql"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand — run the Scribe daemon (local HTTP control surface).
type ServeCommand struct {
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show daemon health, database stats, config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// SessionsCommand — list stored recording sessions.
type SessionsCommand struct {
	Limit int `long:"limit" description:"Maximum sessions to list" default:"20"`

	globals *GlobalFlags
	version string
}

// ShowCommand — print the stored artifact of a session.
type ShowCommand struct {
	ID     string `long:"id" description:"Session ID (required)"`
	Script bool   `long:"script" description:"Print only the compiled script"`

	globals *GlobalFlags
	version string
}

// PurgeCommand — delete ALL stored recordings with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open configured DB
}
