package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/readygate/readygate/internal/config"
	"github.com/readygate/readygate/internal/core"
	"github.com/readygate/readygate/internal/journal"
)

func historyCmd() *cobra.Command {
	var configPath string
	var journalPath string
	var limit int
	var format string

	c := &cobra.Command{
		Use:   "history [flags]",
		Short: "Show recent launches from the journal",
		Long: `History lists recent launches recorded in the journal, newest first. The
text format is a one-line-per-launch table; --format json includes the
per-target and per-step detail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := journalPath
			if path == "" {
				cfg, _, err := config.Discover(configPath)
				if err != nil {
					return err
				}
				path = cfg.Journal.Path
			}
			if path == "" {
				return errors.New("no journal configured: pass --journal or set journal.path in the spec file")
			}

			jnl, err := journal.Open(journal.Config{Path: path, Logger: core.Logger()})
			if err != nil {
				return err
			}
			defer jnl.Close()

			launches, err := jnl.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printLaunches(cmd.OutOrStdout(), launches, format)
		},
	}

	f := c.Flags()
	f.StringVarP(&configPath, "config", "c", "", "launch spec file to read the journal path from")
	f.StringVar(&journalPath, "journal", "", "journal database (default: the spec file's journal.path)")
	f.IntVarP(&limit, "limit", "n", 20, "most recent launches to show")
	f.StringVar(&format, "format", "text", "output format: text|json")
	return c
}

func printLaunches(w io.Writer, launches []journal.Launch, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(launches)
	case "text", "":
		printLaunchTable(w, launches)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected text|json)", format)
	}
}

func printLaunchTable(w io.Writer, launches []journal.Launch) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tOUTCOME\tMODE\tEXIT\tELAPSED\tCOMMAND")
	for _, l := range launches {
		exit := "-"
		if l.ExitCode != nil {
			exit = strconv.Itoa(*l.ExitCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			l.StartedAt.Format(time.RFC3339),
			l.Outcome,
			l.Mode,
			exit,
			l.Elapsed.Round(time.Millisecond),
			l.Command,
		)
	}
	tw.Flush()
}
