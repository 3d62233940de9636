//go:build !unix

package launch

// ExecSupported reports whether Exec can replace the process image here.
func ExecSupported() bool { return false }

// Exec is unavailable without a unix exec syscall. Callers fall back to a
// Supervisor, which spawns the server as a child and mirrors its exit.
func Exec(spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	return ErrExecUnsupported
}
