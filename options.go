package readygate

import (
	"fmt"
	"os"
	"time"

	"github.com/readygate/readygate/internal/core"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("readygate: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonNegative panics if v < 0 with a descriptive message.
func requireNonNegative[T int | time.Duration](name string, v T) {
	if v < 0 {
		panic(fmt.Sprintf("readygate: %s must not be negative, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("readygate: %s must not be empty", name))
	}
}

// Option configures a Launcher during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// With* functions panic on values that are invalid regardless of runtime
// state (empty paths, non-positive durations, unknown modes), in the manner
// of [regexp.MustCompile]. Validation that depends on runtime state, such
// as whether a target spec parses, is left to New.
type Option func(*launcherConfig)

// TargetConfig declares one readiness target together with per-target
// overrides of the launch-wide probing bounds. A zero override inherits
// the launch-wide value, so a target that needs nothing special is just
// its Spec.
type TargetConfig = core.TargetConfig

// WithTargets adds readiness targets by spec string, probed with the
// launch-wide bounds. A spec is scheme://host[:port][/path] with the scheme
// optional for plain TCP:
//
//	"db:5432"
//	"tcp://db:5432"
//	"http://cache:8080/healthz"
//	"dns://broker.internal"
//	"postgres://app:secret@db:5432/app?sslmode=disable"
//
// Specs are parsed by New, which reports unparseable ones wrapped with
// ErrInvalidTarget.
//
// Panics if a spec is empty.
func WithTargets(specs ...string) Option {
	for _, s := range specs {
		requireNonEmpty("target spec", s)
	}
	return func(c *launcherConfig) {
		for _, s := range specs {
			c.Targets = append(c.Targets, TargetConfig{Spec: s})
		}
	}
}

// WithTargetConfigs adds readiness targets with per-target overrides, for
// cases WithTargets cannot express: a longer timeout for one slow
// dependency, an exact HTTP status, a response body check, or a fail-fast
// override on a single target.
//
// Panics if a target has an empty Spec.
func WithTargetConfigs(targets ...TargetConfig) Option {
	for _, tc := range targets {
		requireNonEmpty("target spec", tc.Spec)
	}
	return func(c *launcherConfig) {
		c.Targets = append(c.Targets, targets...)
	}
}

// WithInterval sets the pause between probe attempts for every target.
//
// Default: DefaultInterval (500ms).
//
// Panics if d <= 0.
func WithInterval(d time.Duration) Option {
	requirePositive("interval", d)
	return func(c *launcherConfig) {
		c.Interval = d
	}
}

// WithTimeout bounds how long each target may take to become ready. A
// target still failing when its bound expires makes Wait and Run return an
// error matching ErrUnavailable. A value of 0 removes the bound; the wait
// is then limited only by the attempt limit and the caller's context.
//
// Default: DefaultTimeout (60s).
//
// Panics if d < 0.
func WithTimeout(d time.Duration) Option {
	requireNonNegative("timeout", d)
	return func(c *launcherConfig) {
		c.Timeout = d
	}
}

// WithMaxAttempts caps how many probe attempts each target gets before the
// wait reports ErrUnavailable. A value of 0 means unlimited: the wait is
// then bounded only by the timeout and the caller's context.
//
// Default: 0.
//
// Panics if n < 0.
func WithMaxAttempts(n int) Option {
	requireNonNegative("max attempts", n)
	return func(c *launcherConfig) {
		c.MaxAttempts = n
	}
}

// WithProbeTimeout bounds a single probe attempt: one dial, one HTTP
// round-trip, one DNS lookup. It keeps an endpoint that drops packets
// instead of refusing them from consuming the whole wait in one attempt.
//
// Default: DefaultProbeTimeout (3s).
//
// Panics if d <= 0.
func WithProbeTimeout(d time.Duration) Option {
	requirePositive("probe timeout", d)
	return func(c *launcherConfig) {
		c.ProbeTimeout = d
	}
}

// WithFailFast makes a wait abort on probe failures retrying cannot heal,
// such as credentials the database rejects or a DNS name that does not
// exist, instead of retrying them until the bounds run out. By default
// every failure is retried identically, because most failures during a
// cold start (connection refused, name not yet registered) are exactly the
// transient kind the gate exists to wait through.
//
// Individual targets can override this via TargetConfig.FailFast.
func WithFailFast() Option {
	return func(c *launcherConfig) {
		c.FailFast = true
	}
}

// WithCommand sets the server command the launch hands control to, following
// the exec.Command convention: path is the command name or path, args do not
// repeat it. A bare name is resolved against PATH at handoff time.
//
// Panics if path is empty.
func WithCommand(path string, args ...string) Option {
	requireNonEmpty("command path", path)
	return func(c *launcherConfig) {
		c.Command.Path = path
		c.Command.Args = args
	}
}

// WithEnv adds entries, each in KEY=VALUE form, to the environment the
// server starts with. The server always inherits the launcher's
// environment; entries given here are appended to it.
//
// Panics if an entry is empty.
func WithEnv(entries ...string) Option {
	for _, e := range entries {
		requireNonEmpty("environment entry", e)
	}
	return func(c *launcherConfig) {
		if c.Command.Env == nil {
			c.Command.Env = os.Environ()
		}
		c.Command.Env = append(c.Command.Env, entries...)
	}
}

// WithDir sets the working directory the server starts in. By default the
// server keeps the launcher's working directory.
//
// Panics if dir is empty.
func WithDir(dir string) Option {
	requireNonEmpty("working directory", dir)
	return func(c *launcherConfig) {
		c.Command.Dir = dir
	}
}

// WithMode selects how Run hands control to the server. HandoffExec, the
// default, replaces the launcher's process image. HandoffSupervise keeps
// the launcher resident as the server's parent. Run switches exec to
// supervise on its own when the status server is enabled or the platform
// has no exec; the reverse never happens.
//
// Panics if m is not a recognized mode.
func WithMode(m HandoffMode) Option {
	if !m.IsValid() {
		panic(fmt.Sprintf("readygate: invalid handoff mode: %v", m))
	}
	return func(c *launcherConfig) {
		c.Mode = m
	}
}

// WithStopGracePeriod sets how long a supervised server is given to exit
// after a forwarded termination signal before it is killed. Only
// supervised launches escalate; in exec mode the launcher is the server
// and there is nothing left to escalate.
//
// Default: DefaultStopGracePeriod (10s).
//
// Panics if d <= 0.
func WithStopGracePeriod(d time.Duration) Option {
	requirePositive("stop grace period", d)
	return func(c *launcherConfig) {
		c.StopGracePeriod = d
	}
}

// InitStep is one command to run after the gate opens and before the
// handoff. Steps run in the order given, each must succeed for the launch
// to proceed, and a step with Once set is skipped while its recorded stamp
// still matches the step definition.
type InitStep = core.InitStep

// WithInitSteps adds commands to run between the gate and the handoff, in
// the order given. Typical steps seed fixture data or warm caches; use
// WithMigration for schema migrations, which runs before any step.
//
// Step names must be unique across the launch. New reports duplicates and
// other step-level violations.
//
// Panics if a step has an empty name or an empty command path.
func WithInitSteps(steps ...InitStep) Option {
	for _, s := range steps {
		requireNonEmpty("init step name", s.Name)
		requireNonEmpty("init step command", s.Path)
	}
	return func(c *launcherConfig) {
		c.InitSteps = append(c.InitSteps, steps...)
	}
}

// Migration describes schema migrations to apply in-process during the
// init phase, before any init step runs.
type Migration = core.Migration

// WithMigration applies database migrations during the init phase, before
// any init step. Source is a migration source URL such as
// "file://db/migrations"; DatabaseURL is the database to migrate, usually
// one of the gated targets. A database that is already current counts as
// success.
//
// Panics if m.Source is empty. An empty DatabaseURL is reported by New.
func WithMigration(m Migration) Option {
	requireNonEmpty("migration source", m.Source)
	return func(c *launcherConfig) {
		c.Migration = m
	}
}

// WithInitLock serializes the whole init phase across replicas sharing a
// filesystem, using an exclusive lock on the given file. Replicas that
// lose the race block until the holder finishes, then run their own init
// phase, where once-steps typically skip on the holder's stamps.
//
// Panics if path is empty.
func WithInitLock(path string) Option {
	requireNonEmpty("init lock path", path)
	return func(c *launcherConfig) {
		c.InitLock = path
	}
}

// WithInitLockTimeout bounds how long a launch waits for the init lock.
// By default it waits as long as the launch context allows.
//
// Panics if d <= 0.
func WithInitLockTimeout(d time.Duration) Option {
	requirePositive("init lock timeout", d)
	return func(c *launcherConfig) {
		c.InitLockTimeout = d
	}
}

// WithStampDir sets where once-steps record completion. Stamps are keyed
// by the step definition, so changing a step's command re-runs it. New
// reports a launch that has once-steps but no stamp directory.
//
// Panics if dir is empty.
func WithStampDir(dir string) Option {
	requireNonEmpty("stamp directory", dir)
	return func(c *launcherConfig) {
		c.StampDir = dir
	}
}

// WithInitLogDir sends each init step's output to a per-step log file in
// dir instead of the launcher's own stdout and stderr.
//
// Panics if dir is empty.
func WithInitLogDir(dir string) Option {
	requireNonEmpty("init log directory", dir)
	return func(c *launcherConfig) {
		c.InitLogDir = dir
	}
}

// WithJournal records every launch outcome in a SQLite database at the
// given path: the command, the mode, per-target readiness, init step
// results, and how the launch ended.
//
// Panics if path is empty.
func WithJournal(path string) Option {
	requireNonEmpty("journal path", path)
	return func(c *launcherConfig) {
		c.JournalPath = path
	}
}

// WithJournalKeep sets how many launch records the journal retains. Older
// records are pruned on each write.
//
// Default: DefaultJournalKeep (100).
//
// Panics if n <= 0.
func WithJournalKeep(n int) Option {
	requirePositive("journal keep", n)
	return func(c *launcherConfig) {
		c.JournalKeep = n
	}
}

// WithStatusServer serves /status, /healthz, and /metrics on addr while a
// supervised server runs, re-probing the targets in the background.
// Enabling it forces HandoffSupervise: in exec mode there is no launcher
// process left to serve from.
//
// Panics if addr is empty.
func WithStatusServer(addr string) Option {
	requireNonEmpty("status address", addr)
	return func(c *launcherConfig) {
		c.StatusAddr = addr
	}
}

// WithStatusInterval sets how often the status server re-probes targets.
// Status probing is observability, not gating, so it defaults to a far
// slower cadence than the launch gate.
//
// Default: DefaultStatusInterval (15s).
//
// Panics if d <= 0.
func WithStatusInterval(d time.Duration) Option {
	requirePositive("status interval", d)
	return func(c *launcherConfig) {
		c.StatusInterval = d
	}
}
