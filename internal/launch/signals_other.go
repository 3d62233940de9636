//go:build !unix

package launch

import (
	"os"
	"os/exec"
)

// forwardedSignals is limited to what the platform can deliver.
var forwardedSignals = []os.Signal{os.Interrupt}

func forwardSignal(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}

// terminate has no graceful signal to send here, so it kills outright.
func terminate(p *os.Process) error {
	return p.Kill()
}

// signalExitCode never applies without unix wait statuses.
func signalExitCode(*exec.ExitError) (int, bool) {
	return 0, false
}
