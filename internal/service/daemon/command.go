package daemon

import (
	"context"
	"fmt"

	api "github.com/work-piyush006/lifesync-ai/internal/api/http"
	"github.com/work-piyush006/lifesync-ai/internal/audio"
	"github.com/work-piyush006/lifesync-ai/internal/config"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
	"github.com/work-piyush006/lifesync-ai/internal/scheduler"
	"github.com/work-piyush006/lifesync-ai/internal/service/session"
	"github.com/work-piyush006/lifesync-ai/internal/tone"
	"github.com/work-piyush006/lifesync-ai/internal/wake"
)

// Options controls the daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// DBPath provides an optional database file override.
	DBPath string
	// ListenAddress provides an optional listen address override for the
	// HTTP API.
	ListenAddress string
	// LogLevel provides an optional log level override.
	LogLevel string
}

// Run starts the daemon and blocks until the context is canceled.
// Every enabled alarm is re-registered with the wake subsystem on start, so
// a restart never loses scheduled triggers.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "lifesync-daemon")

	// Load settings from configuration file; a missing file yields defaults.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Command line options override configuration values.
	if opts.DBPath != "" {
		cfg.DatabaseFile = opts.DBPath
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	// Apply the configured log level before anything noisy starts.
	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Open the alarm store; the schema is created on first run.
	store, err := repo.Open(ctx, cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open alarm store: %w", err)
	}

	defer func() {
		_ = store.Close()
	}()

	// The wake subsystem owns the exact timers behind every trigger.
	wakes := wake.New(ctx)
	defer wakes.Close()

	// Register every enabled alarm so triggers survive restarts.
	sched := scheduler.New(wakes, store)
	if err = sched.Sync(ctx); err != nil {
		return fmt.Errorf("sync schedules: %w", err)
	}

	// The tone pool watches the tone directory and prunes removed files.
	pool, err := tone.NewPool(ctx, store, cfg.ToneDirectory)
	if err != nil {
		return fmt.Errorf("open tone pool: %w", err)
	}

	defer func() {
		_ = pool.Close()
	}()

	resolver := tone.NewResolver(pool, cfg.BundledTone)

	// Without a player command, playback is a silent no-op; ring sessions
	// still run their full state machine.
	var player audio.Player
	if cfg.PlayerCommand != "" {
		player = audio.NewExecPlayer(cfg.PlayerCommand)
	} else {
		logger.Warn(ctx, "No player command configured, audio playback is disabled")

		player = audio.NewNopPlayer()
	}

	// The session manager consumes wake deliveries for the daemon's lifetime.
	manager := session.NewManager(
		session.NewRouter(store),
		resolver,
		player,
		sched,
		sched,
		wakes,
		cfg.Settings,
	)

	go manager.Run(ctx, wakes.Deliveries())

	logger.InfoKV(ctx, "Daemon starting",
		"listen_address", cfg.ListenAddress,
		"database_file", cfg.DatabaseFile,
		"tone_directory", cfg.ToneDirectory)

	// Serve the loopback API until shutdown.
	handlers := api.NewHandlers(store, sched, pool, manager, cfg.Settings)

	if err = api.NewServer(cfg.ListenAddress, handlers).Run(ctx); err != nil {
		return fmt.Errorf("run HTTP API: %w", err)
	}

	logger.Info(ctx, "Daemon stopped")

	return nil
}
