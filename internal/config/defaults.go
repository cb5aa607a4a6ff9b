package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	exitOnScroll := true
	return &Config{
		Capture: CaptureConfig{
			BufferCeiling:      1000,
			KeyIdleFlushMs:     500,
			ScrollDebounceMs:   100,
			MutationDebounceMs: 100,
			NavPollIntervalMs:  500,
			EventsLimit:        200,
		},
		Marking: MarkingConfig{
			Modifier:     "Alt",
			ExitOnScroll: &exitOnScroll,
		},
		Daemon: DaemonConfig{
			Host:           "127.0.0.1",
			Port:           8932,
			AuthToken:      "",
			MaxRequestSize: 10485760,
			ProgressURL:    "",
		},
		Storage: StorageConfig{
			Path:              "~/.config/nova/scribe",
			SQLiteFile:        "scribe.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "scribe.log",
		},
	}
}
