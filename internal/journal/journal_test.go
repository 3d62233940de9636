package journal

import (
	"context"
	"errors"
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

func newTestJournal(t *testing.T, keep int) *Journal {
	t.Helper()

	j, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "journal.db"),
		Keep:   keep,
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func gateEntry(command, outcome string) Entry {
	return Entry{
		StartedAt: time.Now().UTC(),
		Command:   command,
		Mode:      "exec",
		Outcome:   outcome,
		Elapsed:   1500 * time.Millisecond,
	}
}

func TestOpen_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Path: "", Logger: discardLogger()})
	if !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath for empty path, got %v", err)
	}

	_, err = Open(Config{
		Path:   filepath.Join(t.TempDir(), "journal.db"),
		Keep:   -1,
		Logger: discardLogger(),
	})
	if err == nil || !strings.Contains(err.Error(), "keep") {
		t.Fatalf("expected keep validation error, got %v", err)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "readygate", "journal.db")
	j, err := Open(Config{Path: path, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("open journal in missing directory: %v", err)
	}
	defer j.Close()
}

func TestJournal_RecordRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)
	ctx := context.Background()

	entry := Entry{
		StartedAt: time.Now().UTC(),
		Command:   "/usr/local/bin/api --port 8080",
		Mode:      "exec",
		Outcome:   OutcomeHandoff,
		Elapsed:   2300 * time.Millisecond,
		Targets: []TargetResult{
			{Target: "tcp://db:5432", Ready: true, Attempts: 4, Elapsed: 1800 * time.Millisecond},
			{Target: "http://cache:8080/healthz", Ready: true, Attempts: 1, Elapsed: 12 * time.Millisecond},
		},
		Steps: []StepResult{
			{Name: "migrate", Elapsed: 400 * time.Millisecond},
			{Name: "seed", Skipped: true},
		},
	}

	id, err := j.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive launch id, got %d", id)
	}

	launches, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}

	got := launches[0]
	if got.ID != id {
		t.Errorf("expected id %d, got %d", id, got.ID)
	}
	if got.Command != entry.Command {
		t.Errorf("expected command %q, got %q", entry.Command, got.Command)
	}
	if got.Mode != "exec" || got.Outcome != OutcomeHandoff {
		t.Errorf("unexpected mode/outcome: %q/%q", got.Mode, got.Outcome)
	}
	if got.ExitCode != nil {
		t.Errorf("expected nil exit code for a handoff, got %d", *got.ExitCode)
	}
	if got.Elapsed != entry.Elapsed {
		t.Errorf("expected elapsed %v, got %v", entry.Elapsed, got.Elapsed)
	}
	if got.StartedAt.IsZero() {
		t.Error("expected a recorded start time")
	}

	if len(got.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(got.Targets))
	}
	if got.Targets[0].Target != "tcp://db:5432" || got.Targets[0].Attempts != 4 || !got.Targets[0].Ready {
		t.Errorf("unexpected first target: %+v", got.Targets[0])
	}
	if got.Targets[1].Elapsed != 12*time.Millisecond {
		t.Errorf("expected second target elapsed 12ms, got %v", got.Targets[1].Elapsed)
	}

	if len(got.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got.Steps))
	}
	if got.Steps[0].Name != "migrate" || got.Steps[0].Skipped {
		t.Errorf("unexpected first step: %+v", got.Steps[0])
	}
	if got.Steps[1].Name != "seed" || !got.Steps[1].Skipped {
		t.Errorf("expected skipped seed step, got %+v", got.Steps[1])
	}
}

func TestJournal_RecordsFailures(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)
	ctx := context.Background()

	entry := gateEntry("/srv/api", OutcomeGateFailed)
	entry.Error = "target tcp://db:5432: target did not become ready after 12 attempts"
	entry.Targets = []TargetResult{
		{Target: "tcp://db:5432", Ready: false, Attempts: 12, Elapsed: 30 * time.Second, Error: "dial tcp: connection refused"},
	}

	if _, err := j.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	launches, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	got := launches[0]
	if got.Outcome != OutcomeGateFailed {
		t.Errorf("expected outcome %q, got %q", OutcomeGateFailed, got.Outcome)
	}
	if !strings.Contains(got.Error, "did not become ready") {
		t.Errorf("expected gate failure message, got %q", got.Error)
	}
	if len(got.Targets) != 1 || got.Targets[0].Ready || got.Targets[0].Error == "" {
		t.Errorf("expected one failed target with error text, got %+v", got.Targets)
	}
}

func TestJournal_FinishRecordsExit(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)
	ctx := context.Background()

	entry := gateEntry("/srv/api", OutcomeHandoff)
	entry.Mode = "supervise"
	id, err := j.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := j.Finish(ctx, id, 143); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	launches, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	got := launches[0]
	if got.Outcome != OutcomeExited {
		t.Errorf("expected outcome %q after finish, got %q", OutcomeExited, got.Outcome)
	}
	if got.ExitCode == nil || *got.ExitCode != 143 {
		t.Errorf("expected exit code 143, got %v", got.ExitCode)
	}
}

func TestJournal_AmendCorrectsOutcome(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)
	ctx := context.Background()

	id, err := j.Record(ctx, gateEntry("/srv/api", OutcomeHandoff))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := j.Amend(ctx, id, OutcomeLaunchFailed, "exec /srv/api: no such file or directory"); err != nil {
		t.Fatalf("Amend: %v", err)
	}

	launches, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	got := launches[0]
	if got.Outcome != OutcomeLaunchFailed {
		t.Errorf("expected outcome %q after amend, got %q", OutcomeLaunchFailed, got.Outcome)
	}
	if !strings.Contains(got.Error, "no such file") {
		t.Errorf("expected amended error text, got %q", got.Error)
	}
}

func TestJournal_PrunesOldLaunches(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 3)
	ctx := context.Background()

	for _, cmd := range []string{"one", "two", "three", "four", "five"} {
		if _, err := j.Record(ctx, gateEntry(cmd, OutcomeHandoff)); err != nil {
			t.Fatalf("Record %s: %v", cmd, err)
		}
	}

	launches, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 3 {
		t.Fatalf("expected 3 launches after pruning, got %d", len(launches))
	}
	for i, want := range []string{"five", "four", "three"} {
		if launches[i].Command != want {
			t.Errorf("launches[%d]: expected %q (newest first), got %q", i, want, launches[i].Command)
		}
	}
}

func TestJournal_RecentHonorsLimit(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)
	ctx := context.Background()

	for _, cmd := range []string{"one", "two", "three", "four"} {
		if _, err := j.Record(ctx, gateEntry(cmd, OutcomeHandoff)); err != nil {
			t.Fatalf("Record %s: %v", cmd, err)
		}
	}

	launches, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(launches))
	}
	if launches[0].Command != "four" || launches[1].Command != "three" {
		t.Errorf("expected newest two launches, got %q and %q", launches[0].Command, launches[1].Command)
	}
}

func TestJournal_RecentOnEmptyJournal(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t, 0)

	launches, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(launches) != 0 {
		t.Fatalf("expected no launches, got %d", len(launches))
	}
}

func TestJournal_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(Config{Path: path, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if _, err := j.Record(ctx, gateEntry("/srv/api", OutcomeHandoff)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(Config{Path: path, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer reopened.Close()

	launches, err := reopened.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent after reopen: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected the recorded launch to survive reopen, got %d", len(launches))
	}
}
