package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks default filling and listen address validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil config.
	require.Error(t, Validate(nil))

	// Defaults are filled in.
	cfg := new(Config)

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultDatabaseFilename, cfg.DatabaseFile)
	require.Equal(t, DefaultToneDirectory, cfg.ToneDirectory)
	require.Equal(t, DefaultBundledTone, cfg.BundledTone)

	// Bad listen address.
	cfg = &Config{ListenAddress: "bad:address"}
	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ListenAddress: "127.0.0.1:9099",
		DatabaseFile:  filepath.Join(dir, "alarms.db"),
		PlayerCommand: "paplay",
		Settings: Settings{
			Use24HourClock:    true,
			UPIAutoCutAllowed: true,
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, cfg.DatabaseFile, loaded.DatabaseFile)
	require.Equal(t, cfg.PlayerCommand, loaded.PlayerCommand)
	require.True(t, loaded.Settings.Use24HourClock)
	require.True(t, loaded.Settings.UPIAutoCutAllowed)
	require.False(t, loaded.Settings.PenaltyWaived)
}

// TestLoadMissingFileUsesDefaults asserts a missing settings file is not an error.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
}
