package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/novahq/scribe/internal/capture"
	"github.com/novahq/scribe/internal/config"
	"github.com/novahq/scribe/internal/control"
	"github.com/novahq/scribe/internal/storage"
	"github.com/novahq/scribe/internal/synth"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Port > 0 {
		cfg.Daemon.Port = c.Port
	}

	level := cfg.Logging.Level
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	logger, err := newLogger(level, c.globals != nil && c.globals.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return runDaemon(cfg, store, logger, c.version)
}

// runDaemon wires the engine, control surface, and HTTP server together
// and blocks until SIGINT/SIGTERM.
func runDaemon(cfg *config.Config, store storage.Store, logger *zap.Logger, version string) error {
	opts := []capture.Option{capture.WithLogger(logger)}
	if cfg.Daemon.ProgressURL != "" {
		opts = append(opts, capture.WithNotifier(control.HTTPNotifier(cfg.Daemon.ProgressURL, logger)))
	}
	engine := capture.NewEngine(cfg.EngineOptions(), opts...)

	surface := control.NewSurface(engine, logger)
	surface.OnArtifact = func(artifact *synth.Artifact) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.SaveArtifact(ctx, artifact)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	server := control.NewServer(addr, cfg.Daemon.AuthToken, int64(cfg.Daemon.MaxRequestSize), surface, logger)

	logger.Info("scribe daemon starting",
		zap.String("version", version),
		zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Finalize and persist any in-flight recording before exiting.
	if engine.Active() {
		if rec, err := engine.Stop(); err != nil {
			logger.Warn("stop active session", zap.Error(err))
		} else if rec != nil {
			if err := surface.OnArtifact(synth.BuildArtifact(rec)); err != nil {
				logger.Warn("persist final artifact", zap.Error(err))
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
