package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/work-piyush006/lifesync-ai/internal/service/client"
)

var (
	// statusCmd prints every live ringing session.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show live ringing sessions and their unlock progress.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			sessions, err := c.ListSessions(ctx)
			if err != nil {
				return err
			}

			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alarm is ringing.")

				return nil
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "EPISODE\tALARM\tLABEL\tPHASE\tFACE\tSTEPS\tGEO\tGATE")

			for _, s := range sessions {
				fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%t\t%d\t%s\t%t\n",
					s.EpisodeID, s.AlarmID, s.Label, s.Phase,
					s.FaceConfirmed, s.StepCount, geoColumn(s), s.GateSatisfied)
			}

			if err = writer.Flush(); err != nil {
				return err
			}

			for _, s := range sessions {
				if s.GeoTargetMissing {
					fmt.Fprintf(cmd.OutOrStdout(),
						"Alarm %d requires a location but has no target set; dismissal is blocked.\n",
						s.AlarmID)
				}
			}

			return nil
		},
	}

	// faceCmd reports a face confirmation.
	faceCmd = &cobra.Command{
		Use:   "face <episode-id>",
		Short: "Confirm your face for a ringing session.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			session, err := c.ConfirmFace(ctx, args[0])
			if err != nil {
				return err
			}

			printGateProgress(cmd, session)

			return nil
		},
	}

	// stepsCmd reports walked steps.
	stepsCmd = &cobra.Command{
		Use:   "steps <episode-id> <count>",
		Short: "Report walked steps for a ringing session.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Positional arguments: episode id and step count.
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[1])
			}

			session, err := c.AddSteps(ctx, args[0], count)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Steps recorded: %d\n", session.StepCount)
			printGateProgress(cmd, session)

			return nil
		},
	}

	// geoCmd reports the current position.
	geoCmd = &cobra.Command{
		Use:   "geo <episode-id> <latitude> <longitude>",
		Short: "Report your position for a ringing session's geofence check.",
		Args:  cobra.ExactArgs(3), //nolint:mnd // Positional arguments: episode id and coordinates.
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			latitude, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[1])
			}

			longitude, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[2])
			}

			check, err := c.CheckGeo(ctx, args[0], client.GeoPoint{
				Latitude:  latitude,
				Longitude: longitude,
			})
			if err != nil {
				return err
			}

			if check.GeoConfirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "You are inside the target area.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "You are outside the target area.")
			}

			printGateProgress(cmd, &check.Session)

			return nil
		},
	}

	// dismissCmd attempts to end a ringing session.
	dismissCmd = &cobra.Command{
		Use:   "dismiss <episode-id>",
		Short: "Dismiss a ringing session once its unlock conditions are met.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			session, err := c.Dismiss(ctx, args[0])
			if err != nil {
				if client.IsConflict(err) {
					return fmt.Errorf("dismiss refused, unlock conditions are not met yet: %w", err)
				}

				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Alarm %d dismissed.\n", session.AlarmID)

			return nil
		},
	}

	// snoozeCmd postpones a ringing session.
	snoozeCmd = &cobra.Command{
		Use:   "snooze <episode-id>",
		Short: "Snooze a ringing session for five minutes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			outcome, err := c.Snooze(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Snoozed until %s\n", outcome.WakeAt)

			// Informational only; no payment is ever made.
			if outcome.PenaltyNotice {
				fmt.Fprintln(cmd.OutOrStdout(), "Heads up: snoozing counts against your penalty pledge.")
			}

			return nil
		},
	}
)

// geoColumn renders the geo signal for the status table.
func geoColumn(s client.Session) string {
	if s.GeoTargetMissing {
		return "no target"
	}

	return strconv.FormatBool(s.GeoConfirmed)
}

// printGateProgress tells the user whether dismissal is unlocked.
func printGateProgress(cmd *cobra.Command, session *client.Session) {
	if session.GateSatisfied {
		fmt.Fprintln(cmd.OutOrStdout(), "Unlock conditions satisfied, you can dismiss now.")

		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Unlock conditions not satisfied yet.")
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(statusCmd, faceCmd, stepsCmd, geoCmd, dismissCmd, snoozeCmd)
}
