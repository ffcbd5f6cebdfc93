package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// toneKind is the kind for tone registration.
	toneKind string

	// tonesCmd prints the tone pool.
	tonesCmd = &cobra.Command{
		Use:   "tones",
		Short: "List registered alarm tones.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			tones, err := c.ListTones(ctx)
			if err != nil {
				return err
			}

			if len(tones) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tones registered; alarms use the bundled tone.")

				return nil
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tKIND\tPATH")

			for _, tone := range tones {
				fmt.Fprintf(writer, "%d\t%s\t%s\n", tone.ID, tone.Kind, tone.Path)
			}

			return writer.Flush()
		},
	}

	// tonesAddCmd registers an audio file with the pool.
	tonesAddCmd = &cobra.Command{
		Use:   "add <path>",
		Short: "Register an audio file as an alarm tone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			c, err := dial()
			if err != nil {
				return err
			}

			record, err := c.RegisterTone(ctx, args[0], toneKind)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered tone %d: %s\n", record.ID, record.Path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	tonesAddCmd.Flags().StringVarP(&toneKind, "kind", "k", "custom", "tone kind: custom or self_recorded")

	tonesCmd.AddCommand(tonesAddCmd)
	rootCmd.AddCommand(tonesCmd)
}
