// Package cli implements the readygate command line interface.
//
// The CLI layers configuration lowest to highest: built-in defaults, the
// launch spec file, READYGATE_* environment variables, then flags. Every
// YAML knob has a flag, so a spec file is convenience, never a requirement.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/readygate/readygate/internal/core"
)

// exitError carries a specific process exit code out of a command. A nil
// cause means the failure was already reported, for example by a supervised
// server writing to its own stderr, and Execute only mirrors the code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code: 0 on success or
// handoff, 1 when a dependency stays unavailable or the launch fails, 2 on
// usage errors, and the server's own code when a supervised server exits.
func Execute() int {
	return exitCode(newRootCmd().Execute())
}

// exitCode maps a command error to the process exit code, printing the
// cause to stderr when one is attached.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var xe *exitError
	if errors.As(err, &xe) {
		if xe.err != nil {
			fmt.Fprintf(os.Stderr, "readygate: %v\n", xe.err)
		}
		return xe.code
	}
	fmt.Fprintf(os.Stderr, "readygate: %v\n", err)
	return 2
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "readygate",
		Short:         "Wait for dependencies, run init work, then hand control to a server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			core.SetLogger(newLogger(verbose))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log individual probe attempts")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(waitCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// newLogger builds the CLI logger: text on stderr, debug level when
// verbose. Stdout stays reserved for the server and for command output.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", "readygate")
}
