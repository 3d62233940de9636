// Package core provides the internal implementation of the readygate launcher.
// It contains the Launcher (gate, init phase, and handoff orchestrated as one
// sequence), the launch Config with its zero-inherits per-target overrides,
// and the package logger shared by every phase.
package core
