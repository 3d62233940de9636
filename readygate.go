package readygate

import (
	"context"

	"github.com/readygate/readygate/internal/core"
)

// TargetStatus describes how the wait for one target concluded: the
// canonical target spec, whether it became ready, how many probe attempts
// it took, and how long. For a target that never became ready, Err carries
// the terminal error and matches ErrUnavailable via errors.Is.
type TargetStatus = core.TargetStatus

// Launcher gates a process launch on dependency readiness. Build one with
// New, then either Wait for the targets alone or Run the full sequence:
// wait, init steps, handoff.
//
// A Launcher is safe for any number of Wait calls. Run consumes the
// process in exec mode and is meant to be called once.
type Launcher struct {
	core *core.Launcher
}

// New builds a Launcher from the given options. Configuration the options
// cannot check on their own, such as a target spec that does not parse or
// probe options that do not apply to a target's scheme, is reported here,
// so a launcher that constructs cleanly will not fail on configuration
// mid-launch.
func New(opts ...Option) (*Launcher, error) {
	cfg := defaultLauncherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l, err := core.NewLauncher(cfg.toCoreConfig())
	if err != nil {
		return nil, err
	}
	return &Launcher{core: l}, nil
}

// defaultLauncherConfig returns the configuration New starts from before
// applying options.
func defaultLauncherConfig() launcherConfig {
	return launcherConfig{core.Config{
		Interval:        DefaultInterval,
		Timeout:         DefaultTimeout,
		ProbeTimeout:    DefaultProbeTimeout,
		Mode:            HandoffExec,
		StopGracePeriod: DefaultStopGracePeriod,
		JournalKeep:     DefaultJournalKeep,
		StatusInterval:  DefaultStatusInterval,
	}}
}

// Wait blocks until every configured target is ready, or until the first
// target fails its bounds, which cancels the remaining waits. The returned
// statuses are positional, matching the configured targets, and describe
// each wait at the moment it concluded.
//
// Returns ErrNoTargets when the launcher has no targets. Returns an error
// matching ErrUnavailable when a target never became ready within its
// bounds, and the context's error when ctx ended the wait instead.
func (l *Launcher) Wait(ctx context.Context) ([]TargetStatus, error) {
	return l.core.Wait(ctx)
}

// Run executes the full launch: wait for every target, run the init phase,
// then hand control to the configured command.
//
// In exec mode a successful Run never returns; the process image has been
// replaced by the server. In supervise mode Run blocks until the server
// exits and returns the exit code the caller should mirror; a nonzero code
// with a nil error means the server ran and failed on its own terms.
//
// Returns ErrEmptyCommand when no command is configured.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	return l.core.Run(ctx)
}
