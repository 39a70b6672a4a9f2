package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/guest-risk-scorer/internal/archive"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
)

func newLoadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <dir>",
		Short: "Score and store every saved payload in a directory",
		Long: "Imports every *.json file in <dir> (skipping *.expected.json fixtures) as if it had\n" +
			"arrived on the booking webhook. Payloads are not archived again.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads, err := archive.LoadDir(args[0])
			if err != nil {
				return err
			}

			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, p := range payloads {
				result, err := rt.services.Reservations.Import(p.Body)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", p.Name, err)
					continue
				}
				fmt.Fprintf(out, "ok    %s  %s score=%d level=%s\n", p.Name, result.ReservationID, result.Score, result.Level)
			}

			fmt.Fprintf(out, "\nloaded %d of %d payloads\n", len(payloads)-failed, len(payloads))
			if failed > 0 {
				return fmt.Errorf("%d payloads failed to load", failed)
			}
			return nil
		},
	}
}

func newRescoreCommand(opts *rootOptions) *cobra.Command {
	rescoreOpts := services.DefaultRescoreOptions()

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Rescore every stored reservation under the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			stats, err := rt.services.Reservations.RescoreAll(cmd.Context(), rescoreOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rescore complete: %s\n", stats.Summary())
			if stats.Failed > 0 {
				return fmt.Errorf("%d reservations failed to rescore", stats.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rescoreOpts.BatchSize, "batch-size", rescoreOpts.BatchSize, "Reservations per transaction")
	cmd.Flags().IntVar(&rescoreOpts.MaxConcurrent, "concurrency", rescoreOpts.MaxConcurrent, "Reservations scored in parallel within a batch")
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		format   string
		minLevel string
		limit    int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored reservations and their reports as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			data, err := rt.services.Reservations.Export(
				services.ExportFilter{MinLevel: scoring.Level(minLevel), Limit: limit},
				services.ExportFormat(format),
			)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(services.FormatCSV), "Output format (csv|json)")
	cmd.Flags().StringVar(&minLevel, "min-level", "", "Only reservations at or above this level (low|medium|high)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of reservations (0 = all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
