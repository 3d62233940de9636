package readygate

import "time"

// ConfigSnapshot holds a copy of launcherConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Targets         []TargetConfig
	Interval        time.Duration
	Timeout         time.Duration
	MaxAttempts     int
	ProbeTimeout    time.Duration
	FailFast        bool
	CommandPath     string
	CommandArgs     []string
	CommandEnv      []string
	CommandDir      string
	Mode            HandoffMode
	StopGracePeriod time.Duration
	InitSteps       []InitStep
	Migration       Migration
	InitLock        string
	InitLockTimeout time.Duration
	StampDir        string
	InitLogDir      string
	JournalPath     string
	JournalKeep     int
	StatusAddr      string
	StatusInterval  time.Duration
}

// ApplyOptionsForTesting creates a default launcherConfig, applies the given
// options, and returns a ConfigSnapshot of the result. This tests the option
// closures directly without constructing a Launcher.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultLauncherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Targets:         cfg.Targets,
		Interval:        cfg.Interval,
		Timeout:         cfg.Timeout,
		MaxAttempts:     cfg.MaxAttempts,
		ProbeTimeout:    cfg.ProbeTimeout,
		FailFast:        cfg.FailFast,
		CommandPath:     cfg.Command.Path,
		CommandArgs:     cfg.Command.Args,
		CommandEnv:      cfg.Command.Env,
		CommandDir:      cfg.Command.Dir,
		Mode:            cfg.Mode,
		StopGracePeriod: cfg.StopGracePeriod,
		InitSteps:       cfg.InitSteps,
		Migration:       cfg.Migration,
		InitLock:        cfg.InitLock,
		InitLockTimeout: cfg.InitLockTimeout,
		StampDir:        cfg.StampDir,
		InitLogDir:      cfg.InitLogDir,
		JournalPath:     cfg.JournalPath,
		JournalKeep:     cfg.JournalKeep,
		StatusAddr:      cfg.StatusAddr,
		StatusInterval:  cfg.StatusInterval,
	}
}
