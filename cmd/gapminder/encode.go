package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gapminder/internal/config"
	"gapminder/internal/dataprocessing"
	"gapminder/internal/exporter"
)

const defaultModelFile = "model.csv"

func newEncodeCmd(flags *globalFlags) *cobra.Command {
	var (
		outFile   string
		testRatio float64
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode the canonical table as a numeric model matrix and write it as CSV",
		Long: `Encode runs the pipeline and writes the canonical table as model input:
features year, country (label-encoded), population, income and hdi, with
life_expectancy as the target. With --test-ratio the samples are split into
<name>_train.csv and <name>_test.csv using a seeded shuffle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if testRatio < 0 || testRatio >= 1 {
				return fmt.Errorf("--test-ratio must be in [0, 1), got %g", testRatio)
			}

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

			m := dataprocessing.EncodeForModel(report.Result.Canonical)
			w := exporter.NewCSVWriter(a.Files, a.Logger)
			out := cmd.OutOrStdout()

			if testRatio == 0 {
				if err := w.WriteModelMatrix(outFile, m); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %d samples to %s\n", m.Len(), a.Files.ResolvePath(outFile))
				return nil
			}

			train, test, err := dataprocessing.TrainTestSplit(m, testRatio, seed)
			if err != nil {
				return err
			}
			trainFile, testFile := splitNames(outFile)
			if err := w.WriteModelMatrix(trainFile, train); err != nil {
				return err
			}
			if err := w.WriteModelMatrix(testFile, test); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %d training samples to %s\n", train.Len(), a.Files.ResolvePath(trainFile))
			fmt.Fprintf(out, "wrote %d test samples to %s\n", test.Len(), a.Files.ResolvePath(testFile))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", defaultModelFile, "output file, relative to the output directory")
	cmd.Flags().Float64Var(&testRatio, "test-ratio", 0, "fraction of samples held out for testing (0 disables the split)")
	cmd.Flags().Uint64Var(&seed, "seed", dataprocessing.DefaultSplitSeed, "shuffle seed for the train/test split")
	return cmd
}

// splitNames derives the train and test file names from the output file.
func splitNames(name string) (train, test string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".csv"
	}
	return stem + "_train" + ext, stem + "_test" + ext
}
