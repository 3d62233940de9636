package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/readygate/readygate/internal/config"
	"github.com/readygate/readygate/internal/core"
)

func waitCmd() *cobra.Command {
	var gf gateFlags

	c := &cobra.Command{
		Use:   "wait [flags] [target...]",
		Short: "Wait for dependencies to become ready, then exit",
		Long: `Wait runs only the dependency gate: probe every target until it is ready,
then exit 0. A target that stays unavailable past its bounds exits 1, so
the command composes in shell scripts:

  readygate wait db:5432 cache:6379 --timeout 2m && ./migrate.sh

Targets come from positional arguments, --wait flags, and the spec file,
all combined.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gf.loadSpec(cmd)
			if err != nil {
				return err
			}
			for _, a := range args {
				cfg.Wait = append(cfg.Wait, config.TargetSpec{Target: a})
			}
			if len(cfg.Wait) == 0 {
				return fmt.Errorf("%w: pass targets as arguments or set them in the spec file", core.ErrNoTargets)
			}

			cc, err := coreConfig(cfg)
			if err != nil {
				return err
			}
			l, err := core.NewLauncher(cc)
			if err != nil {
				return err
			}

			statuses, err := l.Wait(cmd.Context())
			if err != nil {
				reportUnavailable(statuses)
				return &exitError{code: 1, err: err}
			}
			return nil
		},
	}

	gf.register(c)
	return c
}

// reportUnavailable logs every target that did not become ready, so a
// failed wait names each dependency that held it up, not just the first.
// Targets whose waits were merely canceled by a sibling's failure are
// skipped; they did not fail on their own.
func reportUnavailable(statuses []core.TargetStatus) {
	log := core.Logger()
	for _, st := range statuses {
		if st.Ready || st.Err == nil || errors.Is(st.Err, context.Canceled) {
			continue
		}
		log.Warn("target unavailable",
			"target", st.Target,
			"attempts", st.Attempts,
			"elapsed", st.Elapsed.Round(time.Millisecond),
			"error", st.Err,
		)
	}
}
