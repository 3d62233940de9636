package readygate

import "github.com/readygate/readygate/internal/core"

// HandoffMode controls how Run hands the process over to the server once
// the gate is open and the init phase is done. IsValid reports whether a
// value is a recognized mode, and String returns the mode name.
type HandoffMode = core.Mode

const (
	// HandoffExec replaces the launcher's process image with the server via
	// exec. The server inherits the launcher's PID, file descriptors, and
	// signal routing, so under an init system or container runtime it is
	// supervised exactly as if it had been started directly. This is the
	// default mode.
	//
	// Run never returns after a successful exec handoff. On platforms
	// without exec, and whenever the status server is enabled, the launcher
	// falls back to HandoffSupervise.
	HandoffExec = core.ModeExec

	// HandoffSupervise starts the server as a child process and stays
	// resident: stdio is passed through, signals are forwarded, and when the
	// child exits Run returns its exit code so the launcher can mirror it.
	// Costs one extra process but keeps the launcher alive for the status
	// server and the launch journal.
	HandoffSupervise = core.ModeSupervise
)
