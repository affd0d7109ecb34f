package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/melkeydev/value-finder/finder"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newFindCmd(opts *globalOptions) *cobra.Command {
	var (
		databases []string
		tables    []string
		exact     bool
		asText    bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "find <value>",
		Short: "Search databases for a value",
		Long: "Search every table of the selected databases for a value and report the\n" +
			"tables and columns holding it. The value is inlined into the generated SQL,\n" +
			"so only search values you typed yourself.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("exact") {
				exact = cfg.Finder.ExactMatch
			}

			var extra []finder.Option
			if term.IsTerminal(int(os.Stderr.Fd())) {
				extra = append(extra, finder.WithProgress(progressPrinter(os.Stderr)))
			}

			logger, cleanup := newLogger(cfg)
			defer cleanup()

			f, err := newFinder(cfg, logger, extra...)
			if err != nil {
				return err
			}

			report, err := f.Find(cmd.Context(), finder.Request{
				Value:      finder.ParseValue(args[0], asText),
				Databases:  databases,
				Tables:     tables,
				ExactMatch: exact,
			})
			if len(extra) > 0 {
				fmt.Fprintln(os.Stderr)
			}
			if report == nil {
				return err
			}

			// A cancelled search still prints what it found so far.
			if perr := printReport(cmd.OutOrStdout(), report, output); perr != nil {
				return perr
			}
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&databases, "database", "d", nil, "database to scan, repeatable (default: all non-system databases)")
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "table to scan in every database, repeatable (default: all user tables)")
	cmd.Flags().BoolVar(&exact, "exact", false, "require text columns to equal the value")
	cmd.Flags().BoolVar(&asText, "text", false, "search numeric looking values as text")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func progressPrinter(w io.Writer) func(finder.Progress) {
	return func(p finder.Progress) {
		fmt.Fprintf(w, "\rDatabase[%d/%d] %s: [%d/%d] Scanning Tables\033[K",
			p.DatabaseIndex, p.DatabaseTotal, p.Database, p.TableIndex, p.TableTotal)
	}
}

func printReport(w io.Writer, report *finder.Report, output string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATABASE\tTABLE\tCOLUMNS")
	for _, m := range report.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Database, m.Table, strings.Join(m.Columns, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d match(es) in %d table(s) scanned, %d skipped, %d failed, %s\n",
		len(report.Matches), report.Units, report.Skipped, report.Failed, report.Elapsed.Round(time.Millisecond))
	if len(report.SkippedDatabases) > 0 {
		fmt.Fprintf(w, "unreachable databases: %s\n", strings.Join(report.SkippedDatabases, ", "))
	}
	return nil
}
