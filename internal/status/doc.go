// Package status serves a small HTTP surface while a supervised server runs.
//
// Three endpoints: /status reports the latest background probe result per
// dependency as JSON, /healthz answers 200 while the child process is alive
// and 503 after it exits, and /metrics exposes probe and child state in
// Prometheus format. Dependencies are re-probed on a fixed interval for the
// server's lifetime.
//
// Exec-mode launches never start this server: after the handoff there is no
// process left to serve it.
package status
