package target

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Forms(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		spec string
		want Target
	}{
		"bare host port": {
			spec: "db:5432",
			want: Target{Scheme: SchemeTCP, Host: "db", Port: 5432},
		},
		"explicit tcp": {
			spec: "tcp://web:8000",
			want: Target{Scheme: SchemeTCP, Host: "web", Port: 8000},
		},
		"http with path": {
			spec: "http://web:8000/healthz",
			want: Target{Scheme: SchemeHTTP, Host: "web", Port: 8000, Path: "/healthz"},
		},
		"http default port and path": {
			spec: "http://web",
			want: Target{Scheme: SchemeHTTP, Host: "web", Port: 80, Path: "/"},
		},
		"https default port": {
			spec: "https://api.internal/ready",
			want: Target{Scheme: SchemeHTTPS, Host: "api.internal", Port: 443, Path: "/ready"},
		},
		"dns": {
			spec: "dns://db.internal",
			want: Target{Scheme: SchemeDNS, Host: "db.internal"},
		},
		"postgres with default port": {
			spec: "postgres://app@db/appdb",
			want: Target{Scheme: SchemePostgres, Host: "db", Port: 5432, DSN: "postgres://app@db/appdb"},
		},
		"postgresql alias normalized": {
			spec: "postgresql://db:5433/appdb",
			want: Target{Scheme: SchemePostgres, Host: "db", Port: 5433, DSN: "postgres://db:5433/appdb"},
		},
		"ipv6 bare form": {
			spec: "[::1]:8000",
			want: Target{Scheme: SchemeTCP, Host: "::1", Port: 8000},
		},
		"surrounding whitespace trimmed": {
			spec: "  db:5432 ",
			want: Target{Scheme: SchemeTCP, Host: "db", Port: 5432},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.spec)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.spec, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	specs := map[string]string{
		"empty":              "",
		"no port bare form":  "db",
		"port zero":          "db:0",
		"port out of range":  "db:70000",
		"port not a number":  "db:x",
		"unsupported scheme": "redis://cache:6379",
		"tcp without port":   "tcp://db",
		"tcp without host":   "tcp://:5432",
		"dns with port":      "dns://db:53",
		"http without host":  "http://",
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(spec)
			if err == nil {
				t.Fatalf("Parse(%q): expected error, got nil", spec)
			}
			if !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidTarget in chain", spec, err)
			}
		})
	}
}

func TestTarget_Addr(t *testing.T) {
	t.Parallel()

	tgt := Target{Scheme: SchemeTCP, Host: "db", Port: 5432}
	if got := tgt.Addr(); got != "db:5432" {
		t.Errorf("Addr() = %q, want %q", got, "db:5432")
	}

	v6 := Target{Scheme: SchemeTCP, Host: "::1", Port: 8000}
	if got := v6.Addr(); got != "[::1]:8000" {
		t.Errorf("Addr() = %q, want %q", got, "[::1]:8000")
	}
}

func TestTarget_StringRedactsPostgresCredentials(t *testing.T) {
	t.Parallel()

	tgt, err := Parse("postgres://app:s3cret@db:5432/appdb")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	s := tgt.String()
	if strings.Contains(s, "s3cret") || strings.Contains(s, "app") {
		t.Errorf("String() = %q, must not contain credentials", s)
	}
	if s != "postgres://db:5432" {
		t.Errorf("String() = %q, want %q", s, "postgres://db:5432")
	}

	// The DSN keeps the credentials for the driver.
	if !strings.Contains(tgt.DSN, "s3cret") {
		t.Errorf("DSN = %q, expected full connection URL", tgt.DSN)
	}
}

func TestTarget_URL(t *testing.T) {
	t.Parallel()

	tgt, err := Parse("http://web:8000/healthz")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tgt.URL(); got != "http://web:8000/healthz" {
		t.Errorf("URL() = %q, want %q", got, "http://web:8000/healthz")
	}
}
