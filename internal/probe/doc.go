// Package probe implements single-attempt readiness checks, one per target
// scheme. A prober answers "is this dependency ready right now"; deciding
// how long and how often to keep asking is the gate's job.
package probe
