//go:build unix

package launch

import (
	"fmt"
	"os"
	"syscall"
)

// ExecSupported reports whether Exec can replace the process image here.
func ExecSupported() bool { return true }

// Exec replaces the current process with the spec's command. On success it
// never returns: the server inherits this process's PID, open descriptors,
// and signal routing, exactly as if it had been started directly.
func Exec(spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	path, err := spec.lookup()
	if err != nil {
		return err
	}

	if spec.Dir != "" {
		if err := os.Chdir(spec.Dir); err != nil {
			return fmt.Errorf("chdir %s: %w", spec.Dir, err)
		}
	}

	env := spec.Env
	if env == nil {
		env = os.Environ()
	}

	if err := syscall.Exec(path, spec.argv(), env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
