package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/readygate/readygate/internal/target"
)

// Canonical gate defaults. The root package re-exports these as part of the
// public API.
const (
	DefaultInterval     = 500 * time.Millisecond
	DefaultTimeout      = 60 * time.Second
	DefaultProbeTimeout = 3 * time.Second
)

// DefaultPath is the launch spec file Discover looks for in the working
// directory.
const DefaultPath = "readygate.yaml"

// EnvConfig names the environment variable that points at a launch spec
// file when no --config flag is given.
const EnvConfig = "READYGATE_CONFIG"

// Handoff modes accepted in the spec file and on the command line.
const (
	ModeExec      = "exec"
	ModeSupervise = "supervise"
)

// Config is the launch spec: what to wait for, what to run first, and what
// to hand control to. Zero values defer to the gate defaults, so a spec file
// only states what differs.
type Config struct {
	Wait      []TargetSpec `yaml:"wait"`
	Gate      GateSpec     `yaml:"gate"`
	Init      InitSpec     `yaml:"init"`
	Command   []string     `yaml:"command"`
	Mode      string       `yaml:"mode"`
	StopGrace Duration     `yaml:"stop_grace"` // supervise only, 0 uses the launch default
	Journal   JournalSpec  `yaml:"journal"`
	Status    StatusSpec   `yaml:"status"`
}

// TargetSpec declares one dependency to wait for. The gate knobs override
// the launch-wide GateSpec for this target only; zero means inherit.
type TargetSpec struct {
	Target       string   `yaml:"target"`
	Interval     Duration `yaml:"interval"`
	Timeout      Duration `yaml:"timeout"`
	MaxAttempts  int      `yaml:"max_attempts"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
	FailFast     *bool    `yaml:"fail_fast"`

	// HTTP(S) target knobs.
	ExpectStatus       int    `yaml:"expect_status"`
	BodyPath           string `yaml:"body_path"`
	BodyValue          string `yaml:"body_value"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// GateSpec holds the launch-wide waiting defaults.
type GateSpec struct {
	Interval     Duration `yaml:"interval"`
	Timeout      Duration `yaml:"timeout"` // 0 waits without bound
	MaxAttempts  int      `yaml:"max_attempts"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
	FailFast     bool     `yaml:"fail_fast"`
}

// InitSpec declares the one-time work between readiness and handoff.
type InitSpec struct {
	Lock        string        `yaml:"lock"`
	LockTimeout Duration      `yaml:"lock_timeout"`
	StampDir    string        `yaml:"stamp_dir"`
	LogDir      string        `yaml:"log_dir"`
	Migration   MigrationSpec `yaml:"migration"`
	Steps       []StepSpec    `yaml:"steps"`
}

// MigrationSpec configures the built-in schema migration step.
type MigrationSpec struct {
	Source      string   `yaml:"source"`
	DatabaseURL string   `yaml:"database_url"`
	Timeout     Duration `yaml:"timeout"`
}

// StepSpec declares one init command.
type StepSpec struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
	Env     []string `yaml:"env"`
	Dir     string   `yaml:"dir"`
	Timeout Duration `yaml:"timeout"`
	Once    bool     `yaml:"once"`
}

// JournalSpec configures the launch journal. An empty path disables it.
type JournalSpec struct {
	Path string `yaml:"path"`
	Keep int    `yaml:"keep"`
}

// StatusSpec configures the supervise-mode status server. An empty address
// disables it.
type StatusSpec struct {
	Addr     string   `yaml:"addr"`
	Interval Duration `yaml:"interval"`
}

// Default returns the launch spec used when no file is present: exec-mode
// handoff with the canonical gate defaults and nothing to wait for.
func Default() Config {
	return Config{
		Gate: GateSpec{
			Interval:     Duration(DefaultInterval),
			Timeout:      Duration(DefaultTimeout),
			ProbeTimeout: Duration(DefaultProbeTimeout),
		},
		Mode: ModeExec,
	}
}

// Load reads and validates a launch spec file. The file's values overlay
// the defaults, so partial specs are complete configs.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the launch spec from the first of: the explicit path, the
// READYGATE_CONFIG environment variable, or DefaultPath in the working
// directory. With none present it returns Default() and an empty source
// path.
func Discover(explicit string) (Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	if env := os.Getenv(EnvConfig); env != "" {
		cfg, err := Load(env)
		return cfg, env, err
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		cfg, err := Load(DefaultPath)
		return cfg, DefaultPath, err
	}
	return Default(), "", nil
}

// Validate checks the spec for violations the YAML layer cannot catch. All
// violations are reported at once, joined into a single error.
func (c Config) Validate() error {
	var errs []error

	for i, w := range c.Wait {
		if _, err := target.Parse(w.Target); err != nil {
			errs = append(errs, fmt.Errorf("wait[%d]: %w", i, err))
		}
		for _, knob := range []struct {
			name  string
			value Duration
		}{
			{"interval", w.Interval},
			{"timeout", w.Timeout},
			{"probe_timeout", w.ProbeTimeout},
		} {
			if knob.value < 0 {
				errs = append(errs, fmt.Errorf("wait[%d]: %s must not be negative", i, knob.name))
			}
		}
		if w.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("wait[%d]: max_attempts must not be negative", i))
		}
	}

	if c.Gate.Interval <= 0 {
		errs = append(errs, fmt.Errorf("gate: interval must be positive, got %v", c.Gate.Interval.Std()))
	}
	if c.Gate.Timeout < 0 {
		errs = append(errs, fmt.Errorf("gate: timeout must not be negative, got %v", c.Gate.Timeout.Std()))
	}
	if c.Gate.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("gate: probe_timeout must be positive, got %v", c.Gate.ProbeTimeout.Std()))
	}
	if c.Gate.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("gate: max_attempts must not be negative, got %d", c.Gate.MaxAttempts))
	}

	if _, err := ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.StopGrace < 0 {
		errs = append(errs, fmt.Errorf("stop_grace must not be negative, got %v", c.StopGrace.Std()))
	}

	return errors.Join(errs...)
}

// ParseMode normalizes a handoff mode string. Empty means ModeExec.
func ParseMode(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ModeExec, nil
	case ModeExec:
		return ModeExec, nil
	case ModeSupervise:
		return ModeSupervise, nil
	default:
		return "", fmt.Errorf("mode must be %q or %q, got %q", ModeExec, ModeSupervise, s)
	}
}
