// Package fileutil provides small filesystem helpers shared across readygate:
// recursive directory creation and atomic file writes via temp-file-then-rename.
// They back the journal's data directory, init step log files, and once-step
// stamp files.
package fileutil
