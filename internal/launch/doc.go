// Package launch hands control to the server once its dependencies are
// ready. The preferred mode replaces the launcher's process image outright,
// so the server keeps the PID and signal routing it would have had without
// a launcher in front of it. Where that is unavailable, or when the
// launcher must stay resident, a Supervisor runs the server as a child,
// forwards signals, and mirrors its exit status.
package launch
