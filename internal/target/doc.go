// Package target parses dependency endpoint specs into immutable Target
// values. A target names a host and, depending on the scheme, a port, an
// HTTP path, or a full connection URL. Parsing validates the parts once so
// the probers never see a malformed endpoint.
package target
