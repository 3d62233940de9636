package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/readygate/readygate/internal/config"
	"github.com/readygate/readygate/internal/core"
	"github.com/readygate/readygate/internal/launch"
)

func runCmd() *cobra.Command {
	var gf gateFlags
	var mode string
	var stopGrace time.Duration
	var journalPath string
	var journalKeep int
	var statusAddr string
	var statusInterval time.Duration

	c := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Wait for dependencies, run init steps, then hand control to the command",
		Long: `Run executes the full launch sequence: probe every dependency until it is
ready, run the init steps, then hand control to the server command.

In exec mode (the default) the server replaces the readygate process and
inherits its PID, descriptors, and signal routing. In supervise mode the
server runs as a child: signals are forwarded, its exit code becomes
readygate's. Supervise is switched on automatically when --status is set.

The command comes after "--", or from the spec file when omitted:

  readygate run -w db:5432 -w http://cache:8080/healthz -- ./server --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := serverCommand(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := gf.loadSpec(cmd)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("mode") {
				cfg.Mode = mode
			}
			if f.Changed("stop-grace") {
				cfg.StopGrace = config.Duration(stopGrace)
			}
			if f.Changed("journal") {
				cfg.Journal.Path = journalPath
			}
			if f.Changed("journal-keep") {
				cfg.Journal.Keep = journalKeep
			}
			if f.Changed("status") {
				cfg.Status.Addr = statusAddr
			}
			if f.Changed("status-interval") {
				cfg.Status.Interval = config.Duration(statusInterval)
			}
			if len(command) > 0 {
				cfg.Command = command
			}
			if len(cfg.Command) == 0 {
				return errors.New(`no command to launch: pass one after "--" or set command in the spec file`)
			}

			cc, err := coreConfig(cfg)
			if err != nil {
				return err
			}
			l, err := core.NewLauncher(cc)
			if err != nil {
				return err
			}

			code, err := l.Run(cmd.Context())
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	gf.register(c)
	f := c.Flags()
	f.StringVar(&mode, "mode", "", "handoff mode: exec|supervise (default: the spec file's, then exec)")
	f.DurationVar(&stopGrace, "stop-grace", launch.DefaultStopGracePeriod, "supervise only: SIGTERM-to-SIGKILL grace on shutdown")
	f.StringVar(&journalPath, "journal", "", "record launch outcomes in this SQLite database")
	f.IntVar(&journalKeep, "journal-keep", 0, "launches the journal retains, 0 keeps the default")
	f.StringVar(&statusAddr, "status", "", "serve /status, /healthz, and /metrics on this address (implies supervise)")
	f.DurationVar(&statusInterval, "status-interval", 0, "how often the status server re-probes targets, 0 keeps the default")
	return c
}

// serverCommand extracts the server command from the positional arguments.
// Everything after "--" is the command; without a "--" the bare arguments
// are taken as one. Arguments before a "--" belong to neither readygate
// nor the server, so they are rejected rather than silently dropped.
func serverCommand(cmd *cobra.Command, args []string) ([]string, error) {
	at := cmd.ArgsLenAtDash()
	if at > 0 {
		return nil, fmt.Errorf("unexpected arguments before \"--\": %v", args[:at])
	}
	return args, nil
}
