package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gapminder/internal/config"
	"gapminder/internal/files"
	"gapminder/pkg/contracts/domain"
)

func newSourcesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources and the loadable files found in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			paths, err := config.GetPaths(cfg, flags.baseDir)
			if err != nil {
				return err
			}

			discovery := files.NewDiscovery(paths.DataDir)
			found, err := discovery.FindSources("")
			if err != nil {
				return err
			}
			matched, err := discovery.MatchSources("")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printConfiguredSources(out, paths, cfg.Pipeline.Sources, matched)
			printDiscoveredFiles(out, paths.DataDir, found)
			return nil
		},
	}
}

// printConfiguredSources shows each configured source and whether its file
// exists. A missing file gets the discovered candidate for its indicator.
func printConfiguredSources(out io.Writer, paths *config.Paths, sources []config.SourceConfig, matched map[domain.Indicator]files.FileInfo) {
	fmt.Fprintln(out, "configured sources:")
	t := tablewriter.NewWriter(out)
	t.SetAutoFormatHeaders(false)
	t.SetHeader([]string{"Indicator", "Path", "Impute", "Exists", "Candidate"})
	for _, s := range sources {
		path := paths.SourcePath(s)
		exists := config.FileExists(path)
		candidate := ""
		if f, ok := matched[domain.Indicator(s.Indicator)]; ok && !exists {
			candidate = f.Name
		}
		t.Append([]string{s.Indicator, path, strconv.FormatBool(s.Impute), strconv.FormatBool(exists), candidate})
	}
	t.Render()
}

func printDiscoveredFiles(out io.Writer, dir string, found []files.FileInfo) {
	fmt.Fprintf(out, "\nfiles in %s:\n", dir)
	t := tablewriter.NewWriter(out)
	t.SetAutoFormatHeaders(false)
	t.SetHeader([]string{"File", "Size", "Modified", "Indicator"})
	for _, f := range found {
		ind, _ := files.MatchIndicator(f.Name)
		t.Append([]string{f.Name, strconv.FormatInt(f.Size, 10), f.ModTime.Format("2006-01-02 15:04"), string(ind)})
	}
	t.Render()
}
