// Package sentinel provides a const-declarable error type for sentinel errors.
//
// Sentinels created with errors.New live in package-level vars that any
// importer could overwrite. Error is a string-based error type that can be
// declared const instead, so readygate's exported error values are truly
// immutable while still matching through errors.Is on wrapped chains.
package sentinel
