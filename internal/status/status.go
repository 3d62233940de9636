package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/readygate/readygate/internal/probe"
	"github.com/readygate/readygate/internal/sentinel"
)

// ErrEmptyAddr is returned by NewServer when no listen address is given.
const ErrEmptyAddr = sentinel.Error("status address must not be empty")

// DefaultInterval is how often dependencies are re-probed when
// Config.Interval is zero.
const DefaultInterval = 15 * time.Second

const shutdownTimeout = 5 * time.Second

// Child is the supervised server process as seen by the status server. A nil
// Child means there is no process to report on and /healthz stays healthy.
type Child interface {
	// Pid returns the child's process ID, or 0 before it has started.
	Pid() int
	// Exited is closed once the child has exited.
	Exited() <-chan struct{}
}

// Config configures a status Server.
type Config struct {
	// Addr is the listen address, for example "127.0.0.1:9090". Required.
	Addr string

	// Probers are re-probed in the background to feed /status. The gate has
	// already seen all of them succeed once, so these results show whether
	// dependencies stayed healthy after handoff.
	Probers []probe.Prober

	// Interval between background probe sweeps. Zero means DefaultInterval.
	Interval time.Duration

	// Child is the supervised process, if any.
	Child Child

	// Logger used for server lifecycle and probe failures. nil uses
	// slog.Default().
	Logger *slog.Logger
}

// probeResult is one dependency's latest background probe outcome as
// rendered on /status.
type probeResult struct {
	OK        bool      `json:"ok"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	LatencyMS int64     `json:"latency_ms"`
}

// statusResponse is the /status payload.
type statusResponse struct {
	Running bool                    `json:"running"`
	Pid     int                     `json:"pid,omitempty"`
	Probes  map[string]*probeResult `json:"probes"`
}

// Server exposes /status, /healthz, and /metrics while a supervised server
// runs.
type Server struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics

	mu      sync.RWMutex
	addr    string
	results map[string]*probeResult
}

// NewServer validates cfg and builds a Server. It does not listen; call Run.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrEmptyAddr
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("status: interval must not be negative, got %v", cfg.Interval)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: newMetrics(),
		results: make(map[string]*probeResult),
	}, nil
}

// Addr returns the bound listen address once Run has started listening, and
// "" before that. Useful with a ":0" configured address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled.
// Background probing runs for the same lifetime.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("status: listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.probeLoop(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	s.log.Info("status server listening", "addr", s.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		<-serveErr
		s.log.Info("status server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status: serve: %w", err)
	}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	return r
}

// metricsHandler refreshes the child-running gauge on every scrape, so the
// value does not lag a sweep interval behind the child's exit.
func (s *Server) metricsHandler() http.Handler {
	promHandler := promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.setChildRunning(s.childRunning())
		promHandler.ServeHTTP(w, r)
	})
}

// probeLoop sweeps all probers immediately and then at every interval tick
// until ctx is cancelled.
func (s *Server) probeLoop(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) {
	s.metrics.setChildRunning(s.childRunning())

	for _, p := range s.cfg.Probers {
		name := p.Target().String()
		start := time.Now()
		err := p.Probe(ctx)
		latency := time.Since(start)

		s.metrics.observeProbe(name, err == nil, latency)

		result := &probeResult{
			OK:        err == nil,
			CheckedAt: time.Now().UTC(),
			LatencyMS: int64(latency / time.Millisecond),
		}
		if err != nil {
			result.Message = err.Error()
			s.log.Debug("status probe failed", "target", name, "error", err)
		}

		s.mu.Lock()
		s.results[name] = result
		s.mu.Unlock()
	}
}

func (s *Server) childRunning() bool {
	if s.cfg.Child == nil {
		return true
	}
	select {
	case <-s.cfg.Child.Exited():
		return false
	default:
		return true
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Running: s.childRunning(),
		Probes:  make(map[string]*probeResult),
	}
	if s.cfg.Child != nil {
		resp.Pid = s.cfg.Child.Pid()
	}

	s.mu.RLock()
	for name, result := range s.results {
		resp.Probes[name] = result
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Debug("encode status response", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.childRunning() {
		http.Error(w, "server exited", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
