package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/readygate/readygate/internal/initstep"
	"github.com/readygate/readygate/internal/launch"
	"github.com/readygate/readygate/internal/target"
)

// Mode selects how control passes to the server once the gate opens and
// the init phase finishes.
type Mode int

const (
	// ModeExec replaces the launcher's process image with the server via
	// exec. The server inherits the PID, descriptors, and signal routing;
	// the launcher ceases to exist and the exit status is the server's by
	// identity. This is the default mode.
	ModeExec Mode = iota

	// ModeSupervise runs the server as a child process: stdio passed
	// through, signals forwarded, exit code mirrored. Required for the
	// status server, which needs a process to live in after the handoff,
	// and on platforms without exec.
	ModeSupervise
)

// IsValid reports whether m is a recognized Mode value.
func (m Mode) IsValid() bool {
	switch m {
	case ModeExec, ModeSupervise:
		return true
	default:
		return false
	}
}

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExec:
		return "exec"
	case ModeSupervise:
		return "supervise"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// InitStep is re-exported from initstep so the public API imports only
// from core, preserving the layering: public API → core → initstep.
type InitStep = initstep.Step

// Migration is re-exported from initstep so the public API imports only
// from core, preserving the layering: public API → core → initstep.
type Migration = initstep.Migration

// Spec is re-exported from launch so the public API imports only from
// core, preserving the layering: public API → core → launch.
type Spec = launch.Spec

// TargetConfig is one dependency target plus its per-target overrides.
// A zero override inherits the launch-wide value from Config, so a target
// that needs nothing special is just its spec string.
type TargetConfig struct {
	// Spec is the target in any form target.Parse accepts, for example
	// "db:5432", "http://api:8080/healthz", or "postgres://app@db/app".
	Spec string

	Interval     time.Duration // poll interval override
	Timeout      time.Duration // overall bound override
	MaxAttempts  int           // attempt limit override
	ProbeTimeout time.Duration // per-attempt bound override

	// FailFast overrides the launch-wide fail-fast setting. Nil inherits.
	FailFast *bool

	// HTTP(S) targets only.
	ExpectStatus       int    // exact status that counts as ready, 0 accepts 2xx/3xx
	BodyPath           string // JSONPath into a JSON body, e.g. "$.status"
	BodyValue          string // value BodyPath must yield
	InsecureSkipVerify bool   // skip TLS verification for https targets
}

// Config holds configuration for a Launcher.
//
// Concurrency contract: all fields are immutable after construction via
// NewLauncher. Wait and Run read them without synchronization, relying on
// this guarantee. Defaults are applied by the public API and the CLI, not
// here; Validate requires the launch-wide gate settings to be resolved.
type Config struct {
	// Targets are the dependencies the launch gates on. Empty is allowed
	// for Run, which then proceeds straight to the init phase, and is an
	// error for Wait, which would have nothing to do.
	Targets []TargetConfig

	// Interval is the launch-wide poll interval between probe attempts.
	Interval time.Duration

	// Timeout bounds each target's wait. 0 waits without bound.
	Timeout time.Duration

	// MaxAttempts caps probe attempts per target. 0 means unlimited.
	MaxAttempts int

	// ProbeTimeout bounds a single probe attempt.
	ProbeTimeout time.Duration

	// FailFast aborts a wait on failures retrying cannot heal, such as
	// credentials the server rejects.
	FailFast bool

	// Command is the server the launch hands control to.
	Command Spec

	// Mode selects exec or supervise handoff. Run switches exec to
	// supervise on its own when a status server is configured or the
	// platform has no exec.
	Mode Mode

	// StopGracePeriod bounds the SIGTERM-to-SIGKILL escalation when a
	// supervised launch is canceled. 0 uses the launch default.
	StopGracePeriod time.Duration

	// InitSteps run in order after the gate opens and before the handoff.
	InitSteps []InitStep

	// Migration, when its Source is set, applies database migrations
	// before any init step.
	Migration Migration

	// InitLock, when set, serializes the init phase across replicas
	// sharing a filesystem.
	InitLock string

	// InitLockTimeout bounds how long to wait for the init lock. 0 waits
	// as long as the launch context allows.
	InitLockTimeout time.Duration

	// StampDir is where once-steps record completion.
	StampDir string

	// InitLogDir, when set, sends each init step's output to per-step log
	// files instead of the launcher's stdio.
	InitLogDir string

	// JournalPath, when set, records every launch outcome in a SQLite
	// database there.
	JournalPath string

	// JournalKeep is how many launches the journal retains. 0 uses the
	// journal default.
	JournalKeep int

	// StatusAddr, when set, serves /status, /healthz, and /metrics there
	// while a supervised server runs. Setting it forces supervise mode.
	StatusAddr string

	// StatusInterval is how often the status server re-probes targets.
	// 0 uses the status default.
	StatusInterval time.Duration
}

// Validate checks all Config invariants and returns an error joining every
// violation found, not just the first.
//
// Init steps are validated separately by the init runner, which NewLauncher
// constructs, so their violations surface at the same time.
func (c Config) Validate() error {
	var errs []error

	for i, tc := range c.Targets {
		if _, err := target.Parse(tc.Spec); err != nil {
			errs = append(errs, fmt.Errorf("target[%d]: %w", i, err))
		}
		if tc.Interval < 0 {
			errs = append(errs, fmt.Errorf("target[%d]: interval must not be negative, got %s", i, tc.Interval))
		}
		if tc.Timeout < 0 {
			errs = append(errs, fmt.Errorf("target[%d]: timeout must not be negative, got %s", i, tc.Timeout))
		}
		if tc.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("target[%d]: max attempts must not be negative, got %d", i, tc.MaxAttempts))
		}
		if tc.ProbeTimeout < 0 {
			errs = append(errs, fmt.Errorf("target[%d]: probe timeout must not be negative, got %s", i, tc.ProbeTimeout))
		}
	}

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be greater than 0, got %s", c.Interval))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max attempts must not be negative, got %d", c.MaxAttempts))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe timeout must be greater than 0, got %s", c.ProbeTimeout))
	}
	if !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("invalid mode: %v", c.Mode))
	}
	if c.StopGracePeriod < 0 {
		errs = append(errs, fmt.Errorf("stop grace period must not be negative, got %s", c.StopGracePeriod))
	}
	if c.InitLockTimeout < 0 {
		errs = append(errs, fmt.Errorf("init lock timeout must not be negative, got %s", c.InitLockTimeout))
	}
	if c.JournalKeep < 0 {
		errs = append(errs, fmt.Errorf("journal keep must not be negative, got %d", c.JournalKeep))
	}
	if c.StatusInterval < 0 {
		errs = append(errs, fmt.Errorf("status interval must not be negative, got %s", c.StatusInterval))
	}

	return errors.Join(errs...)
}
