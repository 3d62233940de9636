package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/readygate/readygate/internal/gate"
	"github.com/readygate/readygate/internal/initstep"
	"github.com/readygate/readygate/internal/journal"
	"github.com/readygate/readygate/internal/launch"
	"github.com/readygate/readygate/internal/probe"
	"github.com/readygate/readygate/internal/sentinel"
	"github.com/readygate/readygate/internal/status"
	"github.com/readygate/readygate/internal/target"
)

// ErrNoTargets is returned by Wait when the launcher has no targets to
// wait for.
const ErrNoTargets = sentinel.Error("no targets configured")

// ErrUnavailable is re-exported from gate so the public API imports only
// from core, preserving the layering: public API → core → gate.
const ErrUnavailable = gate.ErrUnavailable

// ErrInvalidTarget is re-exported from target so the public API imports
// only from core, preserving the layering: public API → core → target.
const ErrInvalidTarget = target.ErrInvalidTarget

// ErrEmptyCommand is re-exported from launch so the public API imports
// only from core, preserving the layering: public API → core → launch.
const ErrEmptyCommand = launch.ErrEmptyCommand

// ErrExecUnsupported is re-exported from launch so the public API imports
// only from core, preserving the layering: public API → core → launch.
const ErrExecUnsupported = launch.ErrExecUnsupported

// journalWriteTimeout bounds every journal write the launcher makes.
// Outcomes are recorded on failure paths where the launch context is
// often already canceled, so journal writes never reuse it.
const journalWriteTimeout = 5 * time.Second

// TargetStatus describes how the wait for one target concluded.
type TargetStatus struct {
	Target   string // canonical target spec, credentials redacted
	Ready    bool
	Attempts int
	Elapsed  time.Duration

	// Err is the terminal error for a target that did not become ready,
	// nil otherwise.
	Err error
}

// Launcher runs the launch sequence: wait for every dependency target,
// run the init phase, then hand control to the server. It is built once
// by NewLauncher and may run any number of Wait calls; Run consumes the
// process in exec mode and is meant to be called once.
type Launcher struct {
	cfg Config

	// entries pair each target's prober with its effective gate config,
	// resolved from per-target overrides at construction. Positionally
	// aligned with names.
	entries []gate.Entry
	names   []string

	runner *initstep.Runner
}

// NewLauncher validates the configuration and builds a Launcher. All
// configuration mistakes, including per-target probe options that do not
// apply to a target's scheme, surface here rather than mid-launch.
func NewLauncher(cfg Config) (*Launcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid launch config: %w", err)
	}

	entries, names, err := buildGate(cfg)
	if err != nil {
		return nil, err
	}

	runner, err := initstep.NewRunner(initstep.Config{
		Steps:       cfg.InitSteps,
		Migration:   cfg.Migration,
		LockPath:    cfg.InitLock,
		LockTimeout: cfg.InitLockTimeout,
		StampDir:    cfg.StampDir,
		LogDir:      cfg.InitLogDir,
		Logger:      Logger(),
	})
	if err != nil {
		return nil, err
	}

	return &Launcher{
		cfg:     cfg,
		entries: entries,
		names:   names,
		runner:  runner,
	}, nil
}

// buildGate turns the target configs into gate entries, resolving the
// zero-inherits overlay between per-target overrides and the launch-wide
// gate settings.
func buildGate(cfg Config) ([]gate.Entry, []string, error) {
	entries := make([]gate.Entry, 0, len(cfg.Targets))
	names := make([]string, 0, len(cfg.Targets))

	for _, tc := range cfg.Targets {
		tgt, err := target.Parse(tc.Spec)
		if err != nil {
			return nil, nil, err
		}

		p, err := probe.New(tgt, probe.Options{
			Timeout:            inherit(tc.ProbeTimeout, cfg.ProbeTimeout),
			ExpectStatus:       tc.ExpectStatus,
			BodyPath:           tc.BodyPath,
			BodyValue:          tc.BodyValue,
			InsecureSkipVerify: tc.InsecureSkipVerify,
		})
		if err != nil {
			return nil, nil, err
		}

		gcfg := gate.Config{
			Interval:    inherit(tc.Interval, cfg.Interval),
			Timeout:     inherit(tc.Timeout, cfg.Timeout),
			MaxAttempts: inherit(tc.MaxAttempts, cfg.MaxAttempts),
			FailFast:    cfg.FailFast,
		}
		if tc.FailFast != nil {
			gcfg.FailFast = *tc.FailFast
		}

		entries = append(entries, gate.Entry{Prober: p, Config: gcfg})
		names = append(names, tgt.String())
	}
	return entries, names, nil
}

// inherit returns the launch-wide value when the per-target override is
// zero.
func inherit[T int | time.Duration](override, launchWide T) T {
	if override != 0 {
		return override
	}
	return launchWide
}

// Wait blocks until every configured target is ready, or until the first
// target fails its bounds, which cancels the remaining waits. The returned
// statuses are positional, matching the configured targets, and describe
// each wait at the moment it concluded. The error matches ErrUnavailable
// when a target never became ready and ctx.Err() when the caller gave up.
func (l *Launcher) Wait(ctx context.Context) ([]TargetStatus, error) {
	if len(l.entries) == 0 {
		return nil, ErrNoTargets
	}

	start := time.Now()
	results, err := l.waitAll(ctx)
	statuses := l.statuses(results)
	if err != nil {
		return statuses, err
	}

	Logger().Info("dependency gate open",
		"targets", len(l.entries),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return statuses, nil
}

// waitAll runs the gate for every entry with the current package logger.
// The entries are copied per call so a SetLogger between launches takes
// effect without mutating the launcher.
func (l *Launcher) waitAll(ctx context.Context) ([]gate.Result, error) {
	log := Logger()
	entries := make([]gate.Entry, len(l.entries))
	copy(entries, l.entries)
	for i := range entries {
		entries[i].Config.Logger = log
	}
	return gate.WaitAll(ctx, entries)
}

func (l *Launcher) statuses(results []gate.Result) []TargetStatus {
	out := make([]TargetStatus, len(results))
	for i, r := range results {
		out[i] = TargetStatus{
			Target:   l.names[i],
			Ready:    r.Ready,
			Attempts: r.Attempts,
			Elapsed:  r.Elapsed,
			Err:      r.Err,
		}
	}
	return out
}

// Run executes the full launch: gate, init phase, then handoff. In exec
// mode a successful Run never returns, because the process image has been
// replaced by the server. In supervise mode Run blocks until the server
// exits and returns the exit code the caller should mirror; a nonzero
// code with a nil error means the server ran and failed on its own terms.
//
// Every outcome is recorded in the journal when one is configured. A
// journal that cannot be opened fails the launch; a journal write that
// fails mid-launch is logged and otherwise ignored, because at that point
// the server matters more than the bookkeeping.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	if l.cfg.Command.Path == "" {
		return 0, fmt.Errorf("run: %w", ErrEmptyCommand)
	}

	log := Logger()
	start := time.Now()
	mode := l.effectiveMode(log)

	var jnl *journal.Journal
	if l.cfg.JournalPath != "" {
		j, err := journal.Open(journal.Config{
			Path:   l.cfg.JournalPath,
			Keep:   l.cfg.JournalKeep,
			Logger: log,
		})
		if err != nil {
			return 0, fmt.Errorf("open journal: %w", err)
		}
		jnl = j
		defer func() {
			if cerr := jnl.Close(); cerr != nil {
				log.Warn("close journal", "error", cerr)
			}
		}()
	}

	log.Info("starting launch",
		"command", l.cfg.Command.Path,
		"mode", mode,
		"targets", len(l.entries),
	)

	entry := journal.Entry{
		StartedAt: start,
		Command:   l.commandLine(),
		Mode:      mode.String(),
	}

	if len(l.entries) > 0 {
		results, err := l.waitAll(ctx)
		entry.Targets = l.targetResults(results)
		if err != nil {
			entry.Outcome = journal.OutcomeGateFailed
			entry.Error = err.Error()
			entry.Elapsed = time.Since(start)
			l.record(jnl, entry)
			return 0, err
		}
		log.Info("dependency gate open",
			"targets", len(l.entries),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}

	stepResults, err := l.runner.Run(ctx)
	entry.Steps = journalSteps(stepResults)
	if err != nil {
		entry.Outcome = journal.OutcomeInitFailed
		entry.Error = err.Error()
		entry.Elapsed = time.Since(start)
		l.record(jnl, entry)
		return 0, err
	}

	entry.Outcome = journal.OutcomeHandoff
	entry.Elapsed = time.Since(start)

	if mode == ModeExec {
		return l.exec(jnl, entry)
	}
	return l.supervise(ctx, jnl, entry)
}

// effectiveMode resolves the configured mode against what this launch
// needs and what the platform provides. The status server needs a process
// to live in after the handoff, and exec leaves none behind.
func (l *Launcher) effectiveMode(log *slog.Logger) Mode {
	mode := l.cfg.Mode
	if mode == ModeExec && l.cfg.StatusAddr != "" {
		log.Info("status server requested, using supervise mode", "addr", l.cfg.StatusAddr)
		mode = ModeSupervise
	}
	if mode == ModeExec && !launch.ExecSupported() {
		log.Info("process replacement unavailable on this platform, using supervise mode")
		mode = ModeSupervise
	}
	return mode
}

// exec records the handoff and replaces the process image. The journal row
// goes in first: on success nothing after the exec call runs, so a row
// written afterwards would never exist. When the exec itself fails the row
// is amended to say so.
func (l *Launcher) exec(jnl *journal.Journal, entry journal.Entry) (int, error) {
	id := l.record(jnl, entry)

	Logger().Info("handing off to server", "command", l.cfg.Command.Path)
	err := launch.Exec(l.cfg.Command)

	// Only reached when the exec failed.
	l.amend(jnl, id, journal.OutcomeLaunchFailed, err)
	return 0, err
}

// supervise records the handoff, starts the server as a supervised child,
// and mirrors its exit code. The status server, when configured, runs for
// exactly as long as the child does.
func (l *Launcher) supervise(ctx context.Context, jnl *journal.Journal, entry journal.Entry) (int, error) {
	log := Logger()

	sup, err := launch.NewSupervisor(l.cfg.Command, launch.SupervisorConfig{
		StopGracePeriod: l.cfg.StopGracePeriod,
		Logger:          log,
	})
	if err != nil {
		entry.Outcome = journal.OutcomeLaunchFailed
		entry.Error = err.Error()
		l.record(jnl, entry)
		return 0, err
	}

	id := l.record(jnl, entry)

	var statusDone chan struct{}
	var statusCancel context.CancelFunc
	if l.cfg.StatusAddr != "" {
		srv, serr := status.NewServer(status.Config{
			Addr:     l.cfg.StatusAddr,
			Probers:  l.probers(),
			Interval: l.cfg.StatusInterval,
			Child:    sup,
			Logger:   log,
		})
		if serr != nil {
			l.amend(jnl, id, journal.OutcomeLaunchFailed, serr)
			return 0, serr
		}

		var statusCtx context.Context
		statusCtx, statusCancel = context.WithCancel(ctx)
		defer statusCancel()

		statusDone = make(chan struct{})
		go func() {
			defer close(statusDone)
			// A status server that cannot serve does not take the server
			// down with it.
			if rerr := srv.Run(statusCtx); rerr != nil {
				log.Warn("status server failed", "error", rerr)
			}
		}()
	}

	code, runErr := sup.Run(ctx)

	if statusCancel != nil {
		statusCancel()
		<-statusDone
	}

	if runErr != nil {
		l.amend(jnl, id, journal.OutcomeLaunchFailed, runErr)
		return 0, runErr
	}
	l.finish(jnl, id, code)
	return code, nil
}

func (l *Launcher) probers() []probe.Prober {
	out := make([]probe.Prober, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Prober
	}
	return out
}

func (l *Launcher) commandLine() string {
	return strings.Join(append([]string{l.cfg.Command.Path}, l.cfg.Command.Args...), " ")
}

func (l *Launcher) targetResults(results []gate.Result) []journal.TargetResult {
	out := make([]journal.TargetResult, len(results))
	for i, r := range results {
		tr := journal.TargetResult{
			Target:   l.names[i],
			Ready:    r.Ready,
			Attempts: r.Attempts,
			Elapsed:  r.Elapsed,
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		out[i] = tr
	}
	return out
}

func journalSteps(results []initstep.Result) []journal.StepResult {
	out := make([]journal.StepResult, len(results))
	for i, r := range results {
		sr := journal.StepResult{
			Name:    r.Name,
			Skipped: r.Skipped,
			Elapsed: r.Elapsed,
		}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		out[i] = sr
	}
	return out
}

// record writes a launch entry, returning its row id or 0 when journaling
// is off or the write failed.
func (l *Launcher) record(jnl *journal.Journal, e journal.Entry) int64 {
	if jnl == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	id, err := jnl.Record(ctx, e)
	if err != nil {
		Logger().Warn("journal write failed", "error", err)
		return 0
	}
	return id
}

func (l *Launcher) amend(jnl *journal.Journal, id int64, outcome string, cause error) {
	if jnl == nil || id == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if err := jnl.Amend(ctx, id, outcome, errText); err != nil {
		Logger().Warn("journal write failed", "error", err)
	}
}

func (l *Launcher) finish(jnl *journal.Journal, id int64, code int) {
	if jnl == nil || id == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	if err := jnl.Finish(ctx, id, code); err != nil {
		Logger().Warn("journal write failed", "error", err)
	}
}
