//go:build unix

package launch

import (
	"os"
	"os/exec"
	"syscall"
)

// forwardedSignals are relayed to the supervised child so it sees the same
// lifecycle a directly started server would. SIGCHLD and friends stay with
// the supervisor.
var forwardedSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGQUIT,
	syscall.SIGUSR1,
	syscall.SIGUSR2,
}

func forwardSignal(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}

// terminate asks the child to shut down gracefully.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// signalExitCode maps a signal death to the shell convention of 128 plus
// the signal number, so `kill -9` shows up as 137 to whatever supervises
// the launcher itself.
func signalExitCode(exitErr *exec.ExitError) (int, bool) {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0, false
	}
	return 128 + int(status.Signal()), true
}
