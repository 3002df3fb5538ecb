package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gapminder/internal/config"
	"gapminder/internal/dataprocessing"
	"gapminder/pkg/contracts/domain"
)

func newSummaryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Run the pipeline without exporting and describe every reshaped table and the canonical table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := flags.newApplication(cmd.ErrOrStderr(), func(c *config.Config) {
				c.Output.Formats = nil
			})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			report, err := a.RunPipeline(ctx)
			if err != nil {
				if report != nil {
					printReport(cmd.OutOrStdout(), report)
				}
				return err
			}

			summarizer := dataprocessing.NewSummarizer(a.Logger)
			out := cmd.OutOrStdout()
			for _, t := range report.Result.Reshaped {
				printSummary(out, summarizer.Reshaped(t))
			}
			printSummary(out, summarizer.Canonical(report.Result.Canonical))
			printCorrelation(out, dataprocessing.Correlation(report.Result.Canonical))
			return nil
		},
	}
}

// printSummary renders one table description: shape and year range, the
// missing-value counts, then the descriptive statistics.
func printSummary(out io.Writer, s dataprocessing.Summary) {
	fmt.Fprintf(out, "\n== %s: %d rows x %d columns", s.Name, s.Rows, s.Cols)
	if s.Rows > 0 {
		fmt.Fprintf(out, ", years %d-%d", s.YearMin, s.YearMax)
	}
	fmt.Fprintf(out, "\ncolumns: %s\n", strings.Join(s.Columns, ", "))

	missing := tablewriter.NewWriter(out)
	missing.SetAutoFormatHeaders(false)
	missing.SetHeader([]string{"Column", "Missing"})
	for _, m := range s.Missing {
		missing.Append([]string{m.Column, strconv.Itoa(m.Missing)})
	}
	missing.Render()

	if len(s.Stats) == 0 {
		return
	}

	stats := tablewriter.NewWriter(out)
	stats.SetAutoFormatHeaders(false)
	stats.SetAlignment(tablewriter.ALIGN_RIGHT)
	stats.SetHeader([]string{"Column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, c := range s.Stats {
		stats.Append([]string{
			c.Column,
			strconv.Itoa(c.Count),
			formatStat(c.Mean),
			formatStat(c.Std),
			formatStat(c.Min),
			formatStat(c.Q25),
			formatStat(c.Q50),
			formatStat(c.Q75),
			formatStat(c.Max),
		})
	}
	stats.Render()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// printCorrelation renders the Pearson matrix of the indicator columns.
// Undefined entries print as NaN.
func printCorrelation(out io.Writer, m [][]float64) {
	names := make([]string, len(domain.CanonicalIndicators))
	for i, ind := range domain.CanonicalIndicators {
		names[i] = ind.String()
	}

	fmt.Fprintln(out, "\ncorrelation:")
	t := tablewriter.NewWriter(out)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	t.SetHeader(append([]string{""}, names...))
	for i, row := range m {
		cells := []string{names[i]}
		for _, v := range row {
			cells = append(cells, strconv.FormatFloat(v, 'f', 3, 64))
		}
		t.Append(cells)
	}
	t.Render()
}
