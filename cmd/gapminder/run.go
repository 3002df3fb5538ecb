package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gapminder/internal/operations"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reshape every configured source, align them and export the canonical table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := flags.newApplication(cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			report, err := a.RunPipeline(ctx)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return fmt.Errorf("run %s: %w", runID(report), err)
			}
			return nil
		},
	}
}

func runID(r *operations.RunReport) string {
	if r == nil {
		return "(not started)"
	}
	return r.RunID
}

// printReport renders the per-source statistics and the run outcome.
func printReport(out io.Writer, r *operations.RunReport) {
	fmt.Fprintf(out, "run %s: %s in %s\n", r.RunID, r.Status, r.Duration.Round(time.Millisecond))

	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Indicator", "Source", "Policy", "Countries", "Dropped", "Skipped", "Imputed", "Out of window", "Records"})
	for _, s := range r.Sources {
		policy := "drop"
		if s.Impute {
			policy = "impute"
		}
		table.Append([]string{
			string(s.Indicator),
			s.Source,
			policy,
			strconv.Itoa(s.Countries),
			strconv.Itoa(len(s.CountriesDropped)),
			strconv.Itoa(len(s.CountriesSkipped)),
			strconv.Itoa(s.CellsImputed),
			strconv.Itoa(s.RecordsOutOfWindow),
			strconv.Itoa(s.Records),
		})
	}
	table.Render()

	for _, f := range r.Failures {
		fmt.Fprintf(out, "FAILED %s: %s\n", f.Step, f.Error)
	}
	for _, f := range r.SinkFailures {
		fmt.Fprintf(out, "EXPORT FAILED %s: %s\n", f.Sink, f.Error)
	}

	switch {
	case r.Result == nil:
	case r.EmptyResult:
		fmt.Fprintln(out, "canonical table is empty: no (year, country) pair is present in every source")
	default:
		fmt.Fprintf(out, "canonical table: %d rows (%s)\n", r.CanonicalRows, strings.Join(r.Result.Canonical.Columns(), ", "))
	}
}
