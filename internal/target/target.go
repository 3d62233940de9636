package target

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/readygate/readygate/internal/sentinel"
)

// ErrInvalidTarget is returned by Parse for specs that cannot describe a
// probeable endpoint. Callers can match it with errors.Is through wrapped
// error chains.
const ErrInvalidTarget = sentinel.Error("invalid target")

// Scheme identifies the kind of readiness check a target requires.
type Scheme string

const (
	SchemeTCP      Scheme = "tcp"
	SchemeHTTP     Scheme = "http"
	SchemeHTTPS    Scheme = "https"
	SchemeDNS      Scheme = "dns"
	SchemePostgres Scheme = "postgres"
)

// Target is a single probeable dependency endpoint. Targets are immutable
// after Parse: they are never stored beyond the process, never shared
// between launches, and never mutated by probing.
type Target struct {
	Scheme Scheme
	Host   string
	Port   int // 0 for DNS targets, which have no port

	// Path is the request path for HTTP(S) targets. Defaults to "/".
	Path string

	// DSN is the full connection URL for postgres targets. It may carry
	// credentials, so it never appears in String output.
	DSN string
}

// Parse turns a target spec into a Target. Accepted forms:
//
//	host:port                  bare TCP endpoint
//	tcp://host:port            explicit TCP endpoint
//	http://host:port/path      HTTP GET readiness (port defaults to 80)
//	https://host:port/path     HTTPS GET readiness (port defaults to 443)
//	dns://host                 name resolution only, no port
//	postgres://user@host/db    driver-level PostgreSQL readiness
//
// The postgresql:// alias is accepted and normalized to postgres://.
func Parse(spec string) (Target, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Target{}, fmt.Errorf("%w: empty spec", ErrInvalidTarget)
	}

	if !strings.Contains(spec, "://") {
		return parseHostPort(spec)
	}

	u, err := url.Parse(spec)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	switch u.Scheme {
	case "tcp":
		return parseTCPURL(u)
	case "http", "https":
		return parseHTTPURL(u)
	case "dns":
		return parseDNSURL(u)
	case "postgres", "postgresql":
		return parsePostgresURL(u)
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidTarget, u.Scheme, spec)
	}
}

// Addr returns the host:port dial address for targets that carry a port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// URL returns the full request URL for HTTP(S) targets.
func (t Target) URL() string {
	return fmt.Sprintf("%s://%s%s", t.Scheme, t.Addr(), t.Path)
}

// String renders the canonical spec form. Postgres targets are rendered
// without userinfo so credentials never leak into logs or journal rows.
func (t Target) String() string {
	switch t.Scheme {
	case SchemeDNS:
		return fmt.Sprintf("dns://%s", t.Host)
	case SchemeHTTP, SchemeHTTPS:
		return t.URL()
	case SchemePostgres:
		return fmt.Sprintf("postgres://%s", t.Addr())
	default:
		return fmt.Sprintf("tcp://%s", t.Addr())
	}
}

// parseHostPort handles the bare host:port form, which implies a TCP probe.
func parseHostPort(spec string) (Target, error) {
	host, portStr, err := net.SplitHostPort(spec)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q is not host:port or a target URL", ErrInvalidTarget, spec)
	}
	port, err := parsePort(portStr)
	if err != nil {
		return Target{}, err
	}
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, spec)
	}
	return Target{Scheme: SchemeTCP, Host: host, Port: port}, nil
}

func parseTCPURL(u *url.URL) (Target, error) {
	host, port, err := hostAndPort(u, 0)
	if err != nil {
		return Target{}, err
	}
	if port == 0 {
		return Target{}, fmt.Errorf("%w: tcp target %q requires a port", ErrInvalidTarget, u.String())
	}
	return Target{Scheme: SchemeTCP, Host: host, Port: port}, nil
}

func parseHTTPURL(u *url.URL) (Target, error) {
	scheme := SchemeHTTP
	defaultPort := 80
	if u.Scheme == "https" {
		scheme = SchemeHTTPS
		defaultPort = 443
	}
	host, port, err := hostAndPort(u, defaultPort)
	if err != nil {
		return Target{}, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return Target{Scheme: scheme, Host: host, Port: port, Path: path}, nil
}

func parseDNSURL(u *url.URL) (Target, error) {
	if u.Port() != "" {
		return Target{}, fmt.Errorf("%w: dns target %q takes no port", ErrInvalidTarget, u.String())
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, u.String())
	}
	return Target{Scheme: SchemeDNS, Host: host}, nil
}

func parsePostgresURL(u *url.URL) (Target, error) {
	host, port, err := hostAndPort(u, 5432)
	if err != nil {
		return Target{}, err
	}
	// Normalize the postgresql:// alias so the DSN handed to the driver
	// and the parsed scheme agree.
	dsn := *u
	dsn.Scheme = "postgres"
	return Target{Scheme: SchemePostgres, Host: host, Port: port, DSN: dsn.String()}, nil
}

// hostAndPort extracts and validates the host and port of a URL, applying
// defaultPort when the URL names none. A defaultPort of 0 means "no default":
// the caller decides whether a missing port is an error.
func hostAndPort(u *url.URL, defaultPort int) (string, int, error) {
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, u.String())
	}
	portStr := u.Port()
	if portStr == "" {
		return host, defaultPort, nil
	}
	port, err := parsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: port %q must be an integer between 1 and 65535", ErrInvalidTarget, s)
	}
	return port, nil
}
