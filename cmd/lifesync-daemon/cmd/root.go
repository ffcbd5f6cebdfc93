package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/work-piyush006/lifesync-ai/internal/config"
	"github.com/work-piyush006/lifesync-ai/internal/service/daemon"
	"github.com/work-piyush006/lifesync-ai/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// dbPath overrides the SQLite database file.
	dbPath string
	// listenAddress overrides the HTTP API listen address.
	listenAddress string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "lifesync-daemon",
		Short: "Run the alarm daemon: scheduling, ring sessions, and the local API.",
		Long: `Starts the alarm daemon that keeps wake triggers registered and drives
ringing sessions from trigger to dismissal.

Alarms are persisted in a local SQLite database and re-registered on start,
so scheduled triggers survive restarts. The daemon exposes a loopback HTTP
API consumed by the lifesync CLI; dismissing a ringing alarm requires its
unlock conditions to be satisfied first.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &daemon.Options{
				ConfigPath:    configPath,
				DBPath:        dbPath,
				ListenAddress: listenAddress,
				LogLevel:      logLevel,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the lifesync-daemon CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "", "path to the SQLite database file")
	rootCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "HTTP API listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
