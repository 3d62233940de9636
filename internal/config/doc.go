// Package config reads the readygate.yaml launch spec.
//
// A spec file overlays Default(), so it only needs to state what differs:
// a file with nothing but a wait list gets the stock interval and timeout.
// Validation reports every violation in one pass rather than stopping at
// the first.
package config
