package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/work-piyush006/lifesync-ai/internal/config"
	"github.com/work-piyush006/lifesync-ai/internal/service/client"
	"github.com/work-piyush006/lifesync-ai/internal/version"
)

var (
	// daemonAddress is the daemon's API address.
	daemonAddress string
	// callTimeout bounds each API call.
	callTimeout time.Duration

	// rootCmd represents the base command for the alarm CLI.
	rootCmd = &cobra.Command{
		Use:   "lifesync",
		Short: "Manage alarms and ringing sessions over the daemon's local API.",
		Long: `Command-line client for the alarm daemon.

Alarms are created, listed, and toggled here; when one rings, the session
subcommands (face, steps, geo, dismiss, snooze) feed unlock signals to the
daemon. A dismiss is refused until the alarm's unlock conditions are met.`,
	}
)

// Execute runs the lifesync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by every subcommand.
	rootCmd.PersistentFlags().
		StringVarP(&daemonAddress, "address", "a", config.DefaultListenAddress, "daemon API address")
	rootCmd.PersistentFlags().
		DurationVarP(&callTimeout, "timeout", "t", client.DefaultCallTimeout, "per-call timeout")
}

// commandContext returns a context canceled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// dial builds the API client from the shared flags.
func dial() (*client.Client, error) {
	c, err := client.Dial(daemonAddress, client.WithCallTimeout(callTimeout))
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return c, nil
}

// formatClock renders an alarm time honoring the daemon's clock preference.
func formatClock(hour, minute int, use24 bool) string {
	if use24 {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	meridiem := "AM"

	displayHour := hour
	switch {
	case hour == 0:
		displayHour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		displayHour = hour - 12
		meridiem = "PM"
	}

	return fmt.Sprintf("%d:%02d %s", displayHour, minute, meridiem)
}
