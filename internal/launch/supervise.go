package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"time"
)

// DefaultStopGracePeriod is how long a supervised server gets to exit after
// SIGTERM before the supervisor escalates to SIGKILL.
const DefaultStopGracePeriod = 10 * time.Second

// killDrainTimeout is the hard upper bound for waiting on the wait channel
// after the kill escalation. SIGKILL cannot be caught, so the process should
// exit almost immediately; this exists to avoid blocking forever if
// cmd.Wait hangs on stuck I/O.
const killDrainTimeout = 10 * time.Second

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// StopGracePeriod bounds the SIGTERM-to-SIGKILL escalation when the
	// supervising context is cancelled. Zero uses DefaultStopGracePeriod.
	StopGracePeriod time.Duration

	// Logger receives supervision events. Nil uses slog.Default().
	Logger *slog.Logger
}

// Supervisor runs the server as a child process when replacing the process
// image is unavailable or undesirable. It forwards the signals a service
// manager sends, mirrors the child's exit status, and on context
// cancellation shuts the child down with SIGTERM, escalating to SIGKILL
// after the grace period.
//
// A Supervisor runs one child once. It is not safe for concurrent use.
type Supervisor struct {
	spec   Spec
	grace  time.Duration
	log    *slog.Logger
	pid    atomic.Int64
	exited chan struct{}
}

// NewSupervisor validates the spec and builds a Supervisor.
func NewSupervisor(spec Spec, cfg SupervisorConfig) (*Supervisor, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if cfg.StopGracePeriod < 0 {
		return nil, fmt.Errorf("supervise %s: stop grace period must not be negative, got %v", spec.Path, cfg.StopGracePeriod)
	}

	grace := cfg.StopGracePeriod
	if grace == 0 {
		grace = DefaultStopGracePeriod
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		spec:   spec,
		grace:  grace,
		log:    log,
		exited: make(chan struct{}),
	}, nil
}

// Pid returns the child's process ID, or 0 before the child has started.
func (s *Supervisor) Pid() int {
	return int(s.pid.Load())
}

// Exited returns a channel closed when the child exits. Safe to select on
// from any number of goroutines.
func (s *Supervisor) Exited() <-chan struct{} {
	return s.exited
}

// Run starts the child and blocks until it exits, returning the exit code
// the launcher should mirror. A child killed by a signal maps to the
// conventional 128 plus the signal number. The returned error is non-nil
// only for supervision failures; a child that ran and failed reports that
// through the code alone.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	cmd := exec.Command(s.spec.Path, s.spec.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = s.spec.Env
	cmd.Dir = s.spec.Dir
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", s.spec.Path, err)
	}
	s.pid.Store(int64(cmd.Process.Pid))
	s.log.Info("server started", "command", s.spec.Path, "pid", cmd.Process.Pid)

	// Start the single cmd.Wait goroutine. cmd.Wait must be called exactly
	// once per started process, so every path below consumes this channel
	// instead of calling Wait again. The exited channel is a broadcast for
	// any number of observers.
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
		close(s.exited)
	}()

	sigCh := make(chan os.Signal, 8)
	signal.Notify(sigCh, forwardedSignals...)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-done:
			code, werr := exitStatus(err)
			if werr != nil {
				return 0, fmt.Errorf("wait for %s: %w", s.spec.Path, werr)
			}
			s.log.Info("server exited", "command", s.spec.Path, "pid", s.Pid(), "code", code)
			return code, nil

		case sig := <-sigCh:
			s.log.Debug("forwarding signal", "signal", sig.String(), "pid", s.Pid())
			if err := forwardSignal(cmd.Process, sig); err != nil {
				s.log.Warn("signal forward failed", "signal", sig.String(), "pid", s.Pid(), "error", err)
			}

		case <-ctx.Done():
			return s.stop(cmd, done)
		}
	}
}

// stop shuts the child down after the supervising context ends: SIGTERM,
// then SIGKILL once the grace period lapses. The child's exit status is
// still mirrored, so a server that handles SIGTERM cleanly yields its own
// code and one that had to be killed yields the signal convention.
func (s *Supervisor) stop(cmd *exec.Cmd, done <-chan error) (int, error) {
	pid := cmd.Process.Pid
	s.log.Info("stopping server", "pid", pid, "grace", s.grace)

	if err := terminate(cmd.Process); err != nil {
		// Already exited; drain the wait goroutine with a hard upper bound.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return 0, fmt.Errorf("stop %s: timed out draining process after signal failure", s.spec.Path)
		}
		return exitStatus(waitErr)
	}

	killTimer := time.AfterFunc(s.grace, func() {
		// Kill after the process finished is harmless; the error is
		// discarded on purpose.
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	ok, waitErr := drainDone(done, s.grace+killDrainTimeout)
	if !ok {
		return 0, fmt.Errorf("stop %s: timed out waiting for process to exit after SIGKILL", s.spec.Path)
	}
	return exitStatus(waitErr)
}

// drainDone reads from the done channel with timeout as a hard upper bound.
// Returns false when the timeout elapsed before cmd.Wait delivered.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// exitStatus maps a cmd.Wait result to the exit code the launcher mirrors.
// Failures that are not a child exit at all surface as the error.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, err
	}
	if code, ok := signalExitCode(exitErr); ok {
		return code, nil
	}
	return exitErr.ExitCode(), nil
}
