package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/readygate/readygate/internal/config"
	"github.com/readygate/readygate/internal/core"
	"github.com/readygate/readygate/internal/initstep"
	"github.com/readygate/readygate/internal/launch"
)

// Environment variables consulted between the spec file and the flags.
const (
	envInterval     = "READYGATE_INTERVAL"
	envTimeout      = "READYGATE_TIMEOUT"
	envProbeTimeout = "READYGATE_PROBE_TIMEOUT"
)

// gateFlags are the waiting knobs shared by run and wait.
type gateFlags struct {
	configPath   string
	targets      []string
	interval     time.Duration
	timeout      time.Duration
	maxAttempts  int
	probeTimeout time.Duration
	failFast     bool
}

func (g *gateFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&g.configPath, "config", "c", "", "launch spec file (default: $READYGATE_CONFIG, then ./readygate.yaml)")
	f.StringArrayVarP(&g.targets, "wait", "w", nil, "target to wait for, repeatable (host:port, http://, postgres://, dns://)")
	f.DurationVar(&g.interval, "interval", config.DefaultInterval, "poll interval between probe attempts")
	f.DurationVar(&g.timeout, "timeout", config.DefaultTimeout, "per-target wait bound, 0 waits forever")
	f.IntVar(&g.maxAttempts, "max-attempts", 0, "probe attempts per target, 0 means unlimited")
	f.DurationVar(&g.probeTimeout, "probe-timeout", config.DefaultProbeTimeout, "bound for a single probe attempt")
	f.BoolVar(&g.failFast, "fail-fast", false, "stop retrying on failures retrying cannot heal")
}

// loadSpec resolves the effective launch spec for a command: discover and
// load the spec file, then overlay the READYGATE_* environment variables
// and the flags the user actually set. Flags win over the environment,
// which wins over the file. Targets given with --wait are appended to the
// file's, not replacing them.
func (g *gateFlags) loadSpec(cmd *cobra.Command) (config.Config, error) {
	cfg, src, err := config.Discover(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if src != "" {
		core.Logger().Debug("loaded launch spec", "path", src)
	}

	if err := applyEnvOverrides(&cfg, cmd); err != nil {
		return config.Config{}, err
	}
	g.applyFlags(&cfg, cmd)

	for _, t := range g.targets {
		cfg.Wait = append(cfg.Wait, config.TargetSpec{Target: t})
	}
	return cfg, nil
}

// applyEnvOverrides overlays READYGATE_* variables onto the spec, skipping
// any knob the user also set on the command line so flags keep the last
// word.
func applyEnvOverrides(cfg *config.Config, cmd *cobra.Command) error {
	for _, e := range []struct {
		name string
		flag string
		dst  *config.Duration
	}{
		{envInterval, "interval", &cfg.Gate.Interval},
		{envTimeout, "timeout", &cfg.Gate.Timeout},
		{envProbeTimeout, "probe-timeout", &cfg.Gate.ProbeTimeout},
	} {
		v := os.Getenv(e.name)
		if v == "" || cmd.Flags().Changed(e.flag) {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = config.Duration(d)
	}
	return nil
}

// applyFlags overlays the gate flags the user explicitly set. Unchanged
// flags keep the spec's values even though they carry visible defaults.
func (g *gateFlags) applyFlags(cfg *config.Config, cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("interval") {
		cfg.Gate.Interval = config.Duration(g.interval)
	}
	if f.Changed("timeout") {
		cfg.Gate.Timeout = config.Duration(g.timeout)
	}
	if f.Changed("max-attempts") {
		cfg.Gate.MaxAttempts = g.maxAttempts
	}
	if f.Changed("probe-timeout") {
		cfg.Gate.ProbeTimeout = config.Duration(g.probeTimeout)
	}
	if f.Changed("fail-fast") {
		cfg.Gate.FailFast = g.failFast
	}
}

// coreConfig translates a loaded launch spec into the launcher
// configuration. Spec zero values stay zero so per-target overrides
// inherit the launch-wide settings exactly as they do in the library.
func coreConfig(cfg config.Config) (core.Config, error) {
	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		return core.Config{}, err
	}

	cc := core.Config{
		Interval:        cfg.Gate.Interval.Std(),
		Timeout:         cfg.Gate.Timeout.Std(),
		MaxAttempts:     cfg.Gate.MaxAttempts,
		ProbeTimeout:    cfg.Gate.ProbeTimeout.Std(),
		FailFast:        cfg.Gate.FailFast,
		StopGracePeriod: cfg.StopGrace.Std(),
		Migration: initstep.Migration{
			Source:      cfg.Init.Migration.Source,
			DatabaseURL: cfg.Init.Migration.DatabaseURL,
			Timeout:     cfg.Init.Migration.Timeout.Std(),
		},
		InitLock:        cfg.Init.Lock,
		InitLockTimeout: cfg.Init.LockTimeout.Std(),
		StampDir:        cfg.Init.StampDir,
		InitLogDir:      cfg.Init.LogDir,
		JournalPath:     cfg.Journal.Path,
		JournalKeep:     cfg.Journal.Keep,
		StatusAddr:      cfg.Status.Addr,
		StatusInterval:  cfg.Status.Interval.Std(),
	}

	if mode == config.ModeSupervise {
		cc.Mode = core.ModeSupervise
	}

	for _, w := range cfg.Wait {
		cc.Targets = append(cc.Targets, core.TargetConfig{
			Spec:               w.Target,
			Interval:           w.Interval.Std(),
			Timeout:            w.Timeout.Std(),
			MaxAttempts:        w.MaxAttempts,
			ProbeTimeout:       w.ProbeTimeout.Std(),
			FailFast:           w.FailFast,
			ExpectStatus:       w.ExpectStatus,
			BodyPath:           w.BodyPath,
			BodyValue:          w.BodyValue,
			InsecureSkipVerify: w.InsecureSkipVerify,
		})
	}

	if len(cfg.Command) > 0 {
		cc.Command = launch.Spec{Path: cfg.Command[0], Args: cfg.Command[1:]}
	}

	// An empty step command maps to an empty Path; the init runner turns
	// that into its own error, naming the step.
	for _, s := range cfg.Init.Steps {
		step := initstep.Step{
			Name:    s.Name,
			Env:     s.Env,
			Dir:     s.Dir,
			Timeout: s.Timeout.Std(),
			Once:    s.Once,
		}
		if len(s.Command) > 0 {
			step.Path = s.Command[0]
			step.Args = s.Command[1:]
		}
		cc.InitSteps = append(cc.InitSteps, step)
	}

	return cc, nil
}
