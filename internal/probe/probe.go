package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/jackc/pgx/v5"

	"github.com/readygate/readygate/internal/target"
)

// Prober performs a single readiness attempt against its target. A nil error
// from Probe means the dependency is accepting this kind of check right now.
//
// Probers hold no state between attempts: every call opens and closes
// whatever connection it needs, so a failed attempt leaves nothing behind
// beyond the closed socket.
type Prober interface {
	Probe(ctx context.Context) error
	Target() target.Target
}

// Options configures a prober. Timeout bounds a single attempt; the fields
// below it apply to HTTP(S) targets only.
type Options struct {
	// Timeout is the per-attempt bound. Required.
	Timeout time.Duration

	// ExpectStatus, when nonzero, is the exact HTTP status that counts as
	// ready. Zero accepts any 2xx or 3xx response.
	ExpectStatus int

	// BodyPath is an optional JSONPath expression evaluated against a JSON
	// response body, e.g. "$.status". When set, readiness additionally
	// requires the expression to yield BodyValue.
	BodyPath string

	// BodyValue is the value BodyPath must yield, compared after rendering
	// to a string.
	BodyValue string

	// InsecureSkipVerify disables TLS certificate verification for https
	// targets. Meant for self-signed readiness endpoints inside a private
	// network, not for anything reachable from outside it.
	InsecureSkipVerify bool
}

// New builds the prober matching the target's scheme. Configuration mistakes
// (non-positive timeout, HTTP options on a non-HTTP target, a malformed
// JSONPath expression or connection URL) are caught here so they can never
// masquerade as a dependency that is merely slow to come up.
func New(t target.Target, opts Options) (Prober, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("probe %s: timeout must be positive, got %v", t, opts.Timeout)
	}
	if opts.BodyValue != "" && opts.BodyPath == "" {
		return nil, fmt.Errorf("probe %s: body value requires a body path", t)
	}

	httpOnly := opts.ExpectStatus != 0 || opts.BodyPath != "" || opts.InsecureSkipVerify
	if httpOnly && t.Scheme != target.SchemeHTTP && t.Scheme != target.SchemeHTTPS {
		return nil, fmt.Errorf("probe %s: HTTP options are not applicable to %s targets", t, t.Scheme)
	}

	switch t.Scheme {
	case target.SchemeTCP:
		return newTCPProber(t, opts), nil
	case target.SchemeHTTP, target.SchemeHTTPS:
		return newHTTPProber(t, opts)
	case target.SchemeDNS:
		return newDNSProber(t, opts), nil
	case target.SchemePostgres:
		return newPostgresProber(t, opts)
	default:
		return nil, fmt.Errorf("probe %s: no prober for scheme %q", t, t.Scheme)
	}
}

// validateBodyPath checks a JSONPath expression without evaluating it
// against a document.
func validateBodyPath(path string) error {
	if _, err := jsonpath.New(path); err != nil {
		return fmt.Errorf("invalid body path %q: %w", path, err)
	}
	return nil
}

// validateDSN checks a postgres connection URL by parsing it the way the
// driver will.
func validateDSN(dsn string) error {
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return fmt.Errorf("invalid connection url: %w", err)
	}
	return nil
}

// permanentError marks a probe failure that retrying cannot heal, such as
// credentials the server rejects or a name that does not exist.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so IsPermanent reports true for it. The built-in
// probers classify failures like rejected credentials this way; custom
// probers may do the same.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was classified as unhealable by retries.
// By default the gate retries every failure identically; fail-fast mode uses
// this to abort early on failures that waiting cannot fix.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
