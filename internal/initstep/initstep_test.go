package initstep

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRunner_Validation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     Config
		wantErr string
	}{
		"empty step name": {
			cfg:     Config{Steps: []Step{{Path: "true"}}},
			wantErr: ErrEmptyStepName.Error(),
		},
		"name with path separator": {
			cfg:     Config{Steps: []Step{{Name: "a/b", Path: "true"}}},
			wantErr: "must not contain path separators",
		},
		"duplicate step names": {
			cfg: Config{Steps: []Step{
				{Name: "migrate", Path: "true"},
				{Name: "migrate", Path: "true"},
			}},
			wantErr: ErrDuplicateStepName.Error(),
		},
		"empty step command": {
			cfg:     Config{Steps: []Step{{Name: "migrate"}}},
			wantErr: ErrEmptyStepCommand.Error(),
		},
		"negative step timeout": {
			cfg:     Config{Steps: []Step{{Name: "migrate", Path: "true", Timeout: -time.Second}}},
			wantErr: "timeout must not be negative",
		},
		"once without stamp dir": {
			cfg:     Config{Steps: []Step{{Name: "seed", Path: "true", Once: true}}},
			wantErr: ErrStampDirRequired.Error(),
		},
		"reserved migration name": {
			cfg:     Config{Steps: []Step{{Name: "migrations", Path: "true"}}},
			wantErr: "reserved",
		},
		"negative lock timeout": {
			cfg:     Config{LockTimeout: -time.Second},
			wantErr: "timeout must not be negative",
		},
		"migration without database url": {
			cfg:     Config{Migration: Migration{Source: "file://migrations"}},
			wantErr: "database url must not be empty",
		},
		"negative migration timeout": {
			cfg: Config{Migration: Migration{
				Source:      "file://migrations",
				DatabaseURL: "postgres://localhost:5432/app",
				Timeout:     -time.Second,
			}},
			wantErr: "timeout must not be negative",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NewRunner(tc.cfg)
			if err == nil {
				t.Fatalf("NewRunner() succeeded, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("NewRunner() = %q, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewRunner_AcceptsValidConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Steps: []Step{
			{Name: "migrate", Path: "true", Timeout: time.Minute},
			{Name: "seed", Path: "true", Once: true},
		},
		StampDir: t.TempDir(),
	}
	if _, err := NewRunner(cfg); err != nil {
		t.Fatalf("NewRunner(): %v", err)
	}
}

func TestStepHash(t *testing.T) {
	t.Parallel()

	base := Step{Name: "seed", Path: "myseed", Args: []string{"--fixtures", "all"}}

	h1 := stepHash(base)
	if len(h1) != 16 {
		t.Fatalf("stepHash() length = %d, want 16", len(h1))
	}
	if h2 := stepHash(base); h2 != h1 {
		t.Fatalf("stepHash() unstable: %q then %q", h1, h2)
	}

	changed := base
	changed.Args = []string{"--fixtures", "minimal"}
	if stepHash(changed) == h1 {
		t.Fatal("stepHash() identical for different args")
	}

	reordered := base
	reordered.Path = "myseed --fixtures"
	reordered.Args = []string{"all"}
	if stepHash(reordered) == h1 {
		t.Fatal("stepHash() identical across field boundaries")
	}
}

func TestStampRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stamps", "seed.stamp")

	match, err := stampMatches(path, "abc123")
	if err != nil {
		t.Fatalf("stampMatches() on missing stamp: %v", err)
	}
	if match {
		t.Fatal("stampMatches() = true for a missing stamp")
	}

	if err := writeStamp(path, "abc123"); err != nil {
		t.Fatalf("writeStamp(): %v", err)
	}

	match, err = stampMatches(path, "abc123")
	if err != nil {
		t.Fatalf("stampMatches(): %v", err)
	}
	if !match {
		t.Fatal("stampMatches() = false after writeStamp")
	}

	match, err = stampMatches(path, "def456")
	if err != nil {
		t.Fatalf("stampMatches(): %v", err)
	}
	if match {
		t.Fatal("stampMatches() = true for a different hash")
	}
}

func TestRunMigration_BadSource(t *testing.T) {
	t.Parallel()

	err := runMigration(context.Background(), Migration{
		Source:      "file:///nonexistent/readygate-migrations",
		DatabaseURL: "postgres://localhost:1/app?sslmode=disable",
	}, discardLogger())
	if err == nil {
		t.Fatal("runMigration() succeeded with a nonexistent source")
	}
	if !strings.Contains(err.Error(), "open migrations") {
		t.Fatalf("runMigration() = %q, want an open failure", err)
	}
}

func TestRunnerRun_NothingToDo(t *testing.T) {
	t.Parallel()

	r, err := NewRunner(Config{})
	if err != nil {
		t.Fatalf("NewRunner(): %v", err)
	}
	results, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() with no steps: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Run() produced %d results, want 0", len(results))
	}
}
