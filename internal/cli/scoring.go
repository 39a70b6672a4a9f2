package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/guest-risk-scorer/internal/hospitable"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

func newRulesCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rules with their effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(false)
			if err != nil {
				return err
			}
			defer rt.close()

			rules := rt.services.ScoringConfig.Rules()
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, rules)
			}

			current := rt.services.ScoringConfig.Current()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tSCORE\tENABLED\tDEFAULT")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%d\n", r.ID, r.Category, r.Score, r.Enabled, r.DefaultScore)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nthresholds: medium=%d high=%d\n", current.Thresholds.Medium, current.Thresholds.High)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective scoring configuration as YAML",
		Long:  "Prints defaults merged with --config. The output is a valid overlay file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.newEngine()
			if err != nil {
				return err
			}
			data, err := scoring.MarshalConfig(engine.Configuration().Current())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newScoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score [file|-]",
		Short: "Score a reservation payload without storing it",
		Long:  "Reads a booking webhook payload from a file, or stdin when the argument is '-' or absent,\nand prints the risk report as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			reservation, err := hospitable.ParseWebhook(body)
			if err != nil {
				return fmt.Errorf("invalid reservation payload: %w", err)
			}

			rt, err := opts.open(false)
			if err != nil {
				return err
			}
			defer rt.close()

			report, err := rt.services.Reservations.Score(reservation)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				ReservationID string `json:"reservation_id"`
				*scoring.RiskReport
			}{reservation.ID, report})
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
