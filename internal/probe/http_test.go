package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/readygate/readygate/internal/target"
)

// newTestHTTPProber parses rawURL and builds a prober with a one second
// attempt timeout unless the options say otherwise.
func newTestHTTPProber(t *testing.T, rawURL string, opts Options) Prober {
	t.Helper()

	tgt, err := target.Parse(rawURL)
	if err != nil {
		t.Fatalf("Parse(%q): %v", rawURL, err)
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second
	}
	p, err := New(tgt, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestHTTPProber_Statuses(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		handler http.HandlerFunc
		path    string
		opts    Options
		wantErr string
	}{
		"ok is ready": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
		"no content is ready": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		"server error keeps waiting": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: "status 500",
		},
		"not found keeps waiting": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: "status 404",
		},
		"exact status match": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			opts: Options{ExpectStatus: http.StatusNoContent},
		},
		"exact status mismatch": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			opts:    Options{ExpectStatus: http.StatusNoContent},
			wantErr: "status 200, want 204",
		},
		"probes the configured path": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/healthz" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusOK)
			},
			path: "/healthz",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tc.handler)
			t.Cleanup(srv.Close)

			p := newTestHTTPProber(t, srv.URL+tc.path, tc.opts)

			err := p.Probe(context.Background())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Probe(): %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Probe() succeeded, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Probe() = %q, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestHTTPProber_BodyAssertion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body    string
		opts    Options
		wantErr string
	}{
		"string value matches": {
			body: `{"status":"ok"}`,
			opts: Options{BodyPath: "$.status", BodyValue: "ok"},
		},
		"numeric value matches": {
			body: `{"ready_replicas":3}`,
			opts: Options{BodyPath: "$.ready_replicas", BodyValue: "3"},
		},
		"nested value matches": {
			body: `{"checks":{"database":"up"}}`,
			opts: Options{BodyPath: "$.checks.database", BodyValue: "up"},
		},
		"value differs keeps waiting": {
			body:    `{"status":"starting"}`,
			opts:    Options{BodyPath: "$.status", BodyValue: "ok"},
			wantErr: `yields "starting"`,
		},
		"path absent keeps waiting": {
			body:    `{}`,
			opts:    Options{BodyPath: "$.status", BodyValue: "ok"},
			wantErr: "evaluate",
		},
		"body not json keeps waiting": {
			body:    "warming up",
			opts:    Options{BodyPath: "$.status", BodyValue: "ok"},
			wantErr: "decode",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			p := newTestHTTPProber(t, srv.URL, tc.opts)

			err := p.Probe(context.Background())
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Probe(): %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Probe() succeeded, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Probe() = %q, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestHTTPProber_FailsWhenServerGone(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newTestHTTPProber(t, url, Options{})

	err := p.Probe(context.Background())
	if err == nil {
		t.Fatal("Probe() succeeded against a stopped server")
	}
	if IsPermanent(err) {
		t.Fatalf("Probe() = %v classified as permanent, want retryable", err)
	}
}
