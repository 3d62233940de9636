package initstep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/readygate/readygate/internal/fileutil"
	"github.com/readygate/readygate/internal/sentinel"
)

const (
	// ErrEmptyStepName is returned for a step with no name. Names key the
	// stamp and log files, so they cannot be blank.
	ErrEmptyStepName = sentinel.Error("init step name must not be empty")

	// ErrDuplicateStepName is returned when two steps share a name.
	ErrDuplicateStepName = sentinel.Error("init step names must be unique")

	// ErrEmptyStepCommand is returned for a step with no command.
	ErrEmptyStepCommand = sentinel.Error("init step command must not be empty")

	// ErrStampDirRequired is returned when a once step is configured without
	// a stamp directory to record completion in.
	ErrStampDirRequired = sentinel.Error("once steps require a stamp directory")
)

// migrationResultName is the reserved result name the built-in migration
// reports under.
const migrationResultName = "migrations"

// Result describes how one step of the init phase went. A launch journal
// stores these alongside the launch record.
type Result struct {
	Name    string
	Skipped bool
	Elapsed time.Duration
	Err     error
}

// Step is one ordered command that runs after the dependency gate opens and
// before the server handoff.
type Step struct {
	Name    string        // unique, used for stamp and log file names
	Path    string        // command name or path
	Args    []string      // arguments, without the command itself
	Env     []string      // nil inherits the launcher environment
	Dir     string        // working directory, empty keeps the current one
	Timeout time.Duration // per-step bound, 0 means only the launch bounds it
	Once    bool          // skip while the recorded stamp matches this definition
}

// Config configures a Runner.
type Config struct {
	// Steps run in order after the Migration, stopping at the first failure.
	Steps []Step

	// Migration, when its Source is set, applies database migrations before
	// any command step.
	Migration Migration

	// LockPath, when set, serializes the whole init phase across replicas
	// sharing a filesystem. The lock file stays on disk after release.
	LockPath string

	// LockTimeout bounds how long to wait for the lock. Zero waits as long
	// as the launch context allows.
	LockTimeout time.Duration

	// StampDir is where once steps record completion.
	StampDir string

	// LogDir, when set, sends each step's output to per-step log files
	// instead of the launcher's own stdout and stderr.
	LogDir string

	// Logger receives step progress. Nil uses slog.Default().
	Logger *slog.Logger
}

func (c Config) validate() error {
	seen := make(map[string]struct{}, len(c.Steps))
	for _, step := range c.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return ErrEmptyStepName
		}
		if strings.ContainsAny(step.Name, `/\`) {
			return fmt.Errorf("init step %q: name must not contain path separators", step.Name)
		}
		if step.Name == migrationResultName {
			return fmt.Errorf("init step %q: name is reserved for the built-in migration", step.Name)
		}
		if _, dup := seen[step.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateStepName, step.Name)
		}
		seen[step.Name] = struct{}{}

		if strings.TrimSpace(step.Path) == "" {
			return fmt.Errorf("init step %q: %w", step.Name, ErrEmptyStepCommand)
		}
		if step.Timeout < 0 {
			return fmt.Errorf("init step %q: timeout must not be negative, got %v", step.Name, step.Timeout)
		}
		if step.Once && c.StampDir == "" {
			return fmt.Errorf("init step %q: %w", step.Name, ErrStampDirRequired)
		}
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("init lock: timeout must not be negative, got %v", c.LockTimeout)
	}
	return c.Migration.validate()
}

// Runner executes the init phase: take the lock if one is configured, apply
// migrations, then run each step in order.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates the configuration and builds a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log}, nil
}

// Run executes the whole init phase. The first failure aborts the phase and
// the launch; nothing after it runs. The returned results cover everything
// attempted, the failed step included, so the caller can journal the phase
// whether it succeeded or not.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if len(r.cfg.Steps) == 0 && !r.cfg.Migration.enabled() {
		return nil, nil
	}

	if r.cfg.LockPath != "" {
		lockCtx := ctx
		if r.cfg.LockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, r.cfg.LockTimeout)
			defer cancel()
		}
		lock, err := acquireLock(lockCtx, r.cfg.LockPath)
		if err != nil {
			return nil, err
		}
		defer releaseLock(r.log, lock)
	}

	results := make([]Result, 0, len(r.cfg.Steps)+1)

	if r.cfg.Migration.enabled() {
		start := time.Now()
		err := runMigration(ctx, r.cfg.Migration, r.log)
		results = append(results, Result{
			Name:    migrationResultName,
			Elapsed: time.Since(start),
			Err:     err,
		})
		if err != nil {
			return results, err
		}
	}

	for _, step := range r.cfg.Steps {
		res, err := r.runStep(ctx, step)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (Result, error) {
	res := Result{Name: step.Name}
	start := time.Now()
	err := r.execStep(ctx, step)
	res.Elapsed = time.Since(start)
	res.Err = err
	if errors.Is(err, errStepStamped) {
		res.Skipped = true
		res.Err = nil
		return res, nil
	}
	return res, err
}

// errStepStamped signals that a once step's stamp matched and the step was
// skipped. It never escapes runStep.
const errStepStamped = sentinel.Error("step already stamped")

func (r *Runner) execStep(ctx context.Context, step Step) error {
	stamp := stampPath(r.cfg.StampDir, step)
	hash := stepHash(step)

	if step.Once {
		done, err := stampMatches(stamp, hash)
		if err != nil {
			return fmt.Errorf("init step %s: %w", step.Name, err)
		}
		if done {
			r.log.Info("init step already done, skipping", "step", step.Name, "stamp", hash)
			return errStepStamped
		}
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(stepCtx, step.Path, step.Args...)
	cmd.Env = step.Env
	cmd.Dir = step.Dir

	if r.cfg.LogDir != "" {
		logs, err := newStepLogFiles(r.cfg.LogDir, step.Name)
		if err != nil {
			return fmt.Errorf("init step %s: %w", step.Name, err)
		}
		defer logs.Close()
		cmd.Stdout = logs.stdout
		cmd.Stderr = logs.stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	r.log.Info("running init step", "step", step.Name, "command", step.Path)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("init step %s: %w", step.Name, err)
	}
	r.log.Info("init step done", "step", step.Name, "elapsed", time.Since(start).Round(time.Millisecond))

	if step.Once {
		if err := writeStamp(stamp, hash); err != nil {
			return fmt.Errorf("init step %s: %w", step.Name, err)
		}
	}
	return nil
}

func stampPath(dir string, step Step) string {
	return filepath.Join(dir, step.Name+".stamp")
}

// stepLogFiles holds the per-step stdout and stderr files.
type stepLogFiles struct {
	stdout *os.File
	stderr *os.File
}

// newStepLogFiles creates the two log files for a step. Both are assigned
// only after both creates succeed.
func newStepLogFiles(dir, name string) (*stepLogFiles, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	stdout, err := os.Create(filepath.Join(dir, name+"-stdout.log"))
	if err != nil {
		return nil, fmt.Errorf("create stdout log: %w", err)
	}
	stderr, err := os.Create(filepath.Join(dir, name+"-stderr.log"))
	if err != nil {
		_ = stdout.Close()
		return nil, fmt.Errorf("create stderr log: %w", err)
	}
	return &stepLogFiles{stdout: stdout, stderr: stderr}, nil
}

// Close closes both handles and nils them to prevent double-close.
func (l *stepLogFiles) Close() {
	if l.stdout != nil {
		_ = l.stdout.Close()
		l.stdout = nil
	}
	if l.stderr != nil {
		_ = l.stderr.Close()
		l.stderr = nil
	}
}
