package core

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes Validate, for tests that break
// one field at a time.
func validConfig() Config {
	return Config{
		Targets:      []TargetConfig{{Spec: "db:5432"}},
		Interval:     100 * time.Millisecond,
		Timeout:      5 * time.Second,
		ProbeTimeout: time.Second,
		Command:      Spec{Path: "/srv/api"},
	}
}

func TestMode_IsValid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mode Mode
		want bool
	}{
		"exec":      {mode: ModeExec, want: true},
		"supervise": {mode: ModeSupervise, want: true},
		"negative":  {mode: Mode(-1), want: false},
		"past end":  {mode: Mode(2), want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.mode.IsValid(); got != tc.want {
				t.Errorf("Mode(%d).IsValid() = %v, want %v", int(tc.mode), got, tc.want)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mode Mode
		want string
	}{
		"exec":      {mode: ModeExec, want: "exec"},
		"supervise": {mode: ModeSupervise, want: "supervise"},
		"unknown":   {mode: Mode(42), want: "Mode(42)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.mode.String(); got != tc.want {
				t.Errorf("Mode(%d).String() = %q, want %q", int(tc.mode), got, tc.want)
			}
		})
	}
}

func TestConfig_ValidateAcceptsValid(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfig_ValidateAllowsZeroTimeoutAndEmptyTargets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Targets = nil
	cfg.Timeout = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero timeout and no targets should validate, got %v", err)
	}
}

func TestConfig_ValidateRejectsBadFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr string
	}{
		"bad target spec": {
			mutate:  func(c *Config) { c.Targets = []TargetConfig{{Spec: "no-port"}} },
			wantErr: "target[0]",
		},
		"negative target interval": {
			mutate: func(c *Config) {
				c.Targets = []TargetConfig{{Spec: "db:5432", Interval: -time.Second}}
			},
			wantErr: "target[0]: interval must not be negative",
		},
		"negative target attempts": {
			mutate: func(c *Config) {
				c.Targets = []TargetConfig{{Spec: "db:5432", MaxAttempts: -1}}
			},
			wantErr: "target[0]: max attempts must not be negative",
		},
		"zero interval": {
			mutate:  func(c *Config) { c.Interval = 0 },
			wantErr: "interval must be greater than 0",
		},
		"negative timeout": {
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: "timeout must not be negative",
		},
		"zero probe timeout": {
			mutate:  func(c *Config) { c.ProbeTimeout = 0 },
			wantErr: "probe timeout must be greater than 0",
		},
		"invalid mode": {
			mutate:  func(c *Config) { c.Mode = Mode(9) },
			wantErr: "invalid mode",
		},
		"negative grace": {
			mutate:  func(c *Config) { c.StopGracePeriod = -time.Second },
			wantErr: "stop grace period must not be negative",
		},
		"negative journal keep": {
			mutate:  func(c *Config) { c.JournalKeep = -5 },
			wantErr: "journal keep must not be negative",
		},
		"negative status interval": {
			mutate:  func(c *Config) { c.StatusInterval = -time.Second },
			wantErr: "status interval must not be negative",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestConfig_ValidateCollectsAllViolations(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Targets:      []TargetConfig{{Spec: "not a target"}},
		Interval:     0,
		ProbeTimeout: -time.Second,
		Mode:         Mode(7),
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{
		"target[0]",
		"interval must be greater than 0",
		"probe timeout must be greater than 0",
		"invalid mode",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected joined error to contain %q, got %q", want, err.Error())
		}
	}
}
