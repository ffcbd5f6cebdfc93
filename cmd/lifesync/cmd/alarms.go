package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/work-piyush006/lifesync-ai/internal/service/client"
)

var (
	// addLabel is the new alarm's display name.
	addLabel string
	// addHour is the trigger hour, 0-23.
	addHour int
	// addMinute is the trigger minute, 0-59.
	addMinute int
	// addTone selects the audio source kind.
	addTone string
	// addToneRef points at a registered tone file.
	addToneRef string
	// addConditions lists required unlock conditions.
	addConditions []string
	// addLatitude and addLongitude capture the geofence target.
	addLatitude  float64
	addLongitude float64
	// addDisabled creates the alarm switched off.
	addDisabled bool

	// addCmd creates a new alarm.
	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Create an alarm.",
		Long: `Creates an alarm at the given wall-clock time.

Unlock conditions (face, walk, geo, upi) guard dismissal once the alarm
rings; with none given, a face confirmation is required. A geo condition
needs a target captured with --latitude and --longitude.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			request := &client.CreateAlarmRequest{
				Label:      addLabel,
				Hour:       addHour,
				Minute:     addMinute,
				Tone:       addTone,
				ToneRef:    addToneRef,
				Conditions: addConditions,
			}

			// A geofence target only exists when both coordinates were given.
			if cmd.Flags().Changed("latitude") && cmd.Flags().Changed("longitude") {
				request.GeoTarget = &client.GeoPoint{
					Latitude:  addLatitude,
					Longitude: addLongitude,
				}
			}

			if addDisabled {
				enabled := false
				request.Enabled = &enabled
			}

			alarm, err := c.CreateAlarm(ctx, request)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created alarm %d at %02d:%02d\n",
				alarm.ID, alarm.Hour, alarm.Minute)

			return nil
		},
	}

	// listCmd prints every stored alarm.
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List alarms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			alarms, err := c.ListAlarms(ctx)
			if err != nil {
				return err
			}

			// Honor the daemon's clock preference; fall back to 24h.
			use24 := true
			if settings, settingsErr := c.GetSettings(ctx); settingsErr == nil {
				use24 = settings.Use24HourClock
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tTIME\tLABEL\tTONE\tCONDITIONS\tENABLED")

			for _, alarm := range alarms {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%t\n",
					alarm.ID,
					formatClock(alarm.Hour, alarm.Minute, use24),
					alarm.Label,
					alarm.Tone,
					strings.Join(alarm.Conditions, ","),
					alarm.Enabled)
			}

			return writer.Flush()
		},
	}

	// enableCmd switches an alarm on.
	enableCmd = &cobra.Command{
		Use:   "enable <alarm-id>",
		Short: "Enable an alarm and register its next trigger.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleAlarm(cmd, args[0], true)
		},
	}

	// disableCmd switches an alarm off.
	disableCmd = &cobra.Command{
		Use:   "disable <alarm-id>",
		Short: "Disable an alarm and cancel its pending trigger.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleAlarm(cmd, args[0], false)
		},
	}

	// deleteCmd removes an alarm.
	deleteCmd = &cobra.Command{
		Use:   "delete <alarm-id>",
		Short: "Delete an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			id, err := parseAlarmID(args[0])
			if err != nil {
				return err
			}

			if err = c.DeleteAlarm(ctx, id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted alarm %d\n", id)

			return nil
		},
	}
)

// toggleAlarm flips an alarm's enabled state through the API.
func toggleAlarm(cmd *cobra.Command, rawID string, enabled bool) error {
	ctx, stop := commandContext()
	defer stop()

	c, err := dial()
	if err != nil {
		return err
	}

	id, err := parseAlarmID(rawID)
	if err != nil {
		return err
	}

	var alarm *client.Alarm
	if enabled {
		alarm, err = c.EnableAlarm(ctx, id)
	} else {
		alarm, err = c.DisableAlarm(ctx, id)
	}

	if err != nil {
		return err
	}

	state := "disabled"
	if alarm.Enabled {
		state = "enabled"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Alarm %d %s\n", alarm.ID, state)

	return nil
}

// parseAlarmID parses a decimal alarm id argument.
func parseAlarmID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid alarm id %q", raw)
	}

	return id, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	addCmd.Flags().StringVarP(&addLabel, "label", "l", "", "display label")
	addCmd.Flags().IntVar(&addHour, "hour", 0, "trigger hour (0-23)")
	addCmd.Flags().IntVar(&addMinute, "minute", 0, "trigger minute (0-59)")
	addCmd.Flags().StringVar(&addTone, "tone", "", "tone kind: default, custom, self_recorded, shuffle")
	addCmd.Flags().StringVar(&addToneRef, "tone-ref", "", "path of a registered tone file")
	addCmd.Flags().
		StringSliceVar(&addConditions, "condition", nil, "unlock condition (face, walk, geo, upi); repeatable")
	addCmd.Flags().Float64Var(&addLatitude, "latitude", 0, "geofence target latitude")
	addCmd.Flags().Float64Var(&addLongitude, "longitude", 0, "geofence target longitude")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "create the alarm switched off")

	_ = addCmd.MarkFlagRequired("hour")

	rootCmd.AddCommand(addCmd, listCmd, enableCmd, disableCmd, deleteCmd)
}
