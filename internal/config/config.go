package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Settings is the user-preferences block consumed by the ring-session
// penalty-notice check and the presentation layer. The daemon never
// mutates these.
type Settings struct {
	// Use24HourClock selects the clock format for display purposes.
	Use24HourClock bool `yaml:"use_24_hour_clock" env:"USE_24_HOUR_CLOCK"`
	// UPIAutoCutAllowed records the user's consent to penalty notices.
	// No funds ever move; the flag only enables an informational notice.
	UPIAutoCutAllowed bool `yaml:"upi_auto_cut_allowed" env:"UPI_AUTO_CUT_ALLOWED"`
	// PenaltyWaived suppresses the penalty notice entirely.
	PenaltyWaived bool `yaml:"penalty_waived" env:"PENALTY_WAIVED"`
}

// Config holds daemon parameters shared by the lifesync binaries.
type Config struct {
	// ListenAddress is the loopback address the HTTP API binds to.
	ListenAddress string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	// DatabaseFile is the path to the SQLite database holding alarms and
	// the tone pool.
	DatabaseFile string `yaml:"database_file" env:"DATABASE_FILE"`
	// ToneDirectory is where registered custom and self-recorded audio
	// files live; the tone pool watches it.
	ToneDirectory string `yaml:"tone_directory" env:"TONE_DIRECTORY"`
	// BundledTone is the fallback audio asset every session can play.
	BundledTone string `yaml:"bundled_tone" env:"BUNDLED_TONE"`
	// PlayerCommand is the external command used to loop an audio file,
	// invoked as "<command> <file>". Empty means silent no-op playback.
	PlayerCommand string `yaml:"player_command" env:"PLAYER_COMMAND"`
	// LogLevel is the zap level name for daemon logging.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	// Settings is the user-preferences block.
	Settings Settings `yaml:"settings" envPrefix:"SETTINGS_"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "lifesync-settings.yaml"

	// DefaultDatabaseFilename is the default filename for the SQLite database.
	DefaultDatabaseFilename = "lifesync.db"

	// DefaultListenAddress binds the API to loopback only; the daemon is a
	// single-user local service.
	DefaultListenAddress = "127.0.0.1:8095"

	// DefaultToneDirectory is the default location for registered tones.
	DefaultToneDirectory = "tones"

	// DefaultBundledTone is the default fallback audio asset.
	DefaultBundledTone = "assets/default-alarm.mp3"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// envPrefix namespaces all environment overrides.
	envPrefix = "LIFESYNC_"
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Load reads configuration from the provided path, applies LIFESYNC_*
// environment overrides and fills defaults. A missing file is not an error:
// the daemon runs on defaults plus environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the fields that must be well-formed.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = DefaultDatabaseFilename
	}

	if cfg.ToneDirectory == "" {
		cfg.ToneDirectory = DefaultToneDirectory
	}

	if cfg.BundledTone == "" {
		cfg.BundledTone = DefaultBundledTone
	}

	return nil
}
