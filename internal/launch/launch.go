package launch

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/readygate/readygate/internal/sentinel"
)

// ErrEmptyCommand is returned when a Spec names no command to run.
const ErrEmptyCommand = sentinel.Error("command must not be empty")

// ErrExecUnsupported is returned by Exec on platforms without process image
// replacement. Callers fall back to a Supervisor.
const ErrExecUnsupported = sentinel.Error("exec handoff is not supported on this platform")

// Spec describes the server command a launch hands off to. Args follow the
// exec.Command convention: the command name is not repeated in Args.
type Spec struct {
	Path string   // command name or path, resolved against PATH when bare
	Args []string // arguments, without the command itself
	Env  []string // nil inherits the parent environment
	Dir  string   // working directory, empty keeps the current one
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return ErrEmptyCommand
	}
	return nil
}

// lookup resolves the spec's command to an executable path the way the
// shell would.
func (s Spec) lookup() (string, error) {
	path, err := exec.LookPath(s.Path)
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", s.Path, err)
	}
	return path, nil
}

// argv returns the full argument vector, command name first.
func (s Spec) argv() []string {
	return append([]string{s.Path}, s.Args...)
}
