package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/readygate/readygate/internal/probe"
	"github.com/readygate/readygate/internal/sentinel"
)

// Sentinel errors returned by Wait for invalid configuration and for
// targets that never become ready. Callers can match these with errors.Is
// through wrapped error chains.
const (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")

	// ErrTimeoutNegative indicates a negative timeout. Zero is valid and
	// means wait without bound.
	ErrTimeoutNegative = sentinel.Error("timeout must not be negative")

	// ErrAttemptsNegative indicates a negative attempt limit. Zero is valid
	// and means no limit.
	ErrAttemptsNegative = sentinel.Error("max attempts must not be negative")

	// ErrUnavailable indicates the target did not become ready within the
	// configured bounds.
	ErrUnavailable = sentinel.Error("target did not become ready")
)

// Config configures how long and how often a target is probed.
type Config struct {
	Interval    time.Duration // poll interval, required
	Timeout     time.Duration // overall bound, 0 waits without bound
	MaxAttempts int           // attempt limit, 0 means unlimited
	FailFast    bool          // abort on failures retrying cannot heal
	Logger      *slog.Logger  // optional, defaults to slog.Default()
}

// Result describes how a wait concluded, whether ready or not.
type Result struct {
	Attempts int
	Elapsed  time.Duration
	Ready    bool

	// Err is the terminal error for waits that did not conclude ready. It
	// matches what Wait returned, so a WaitAll caller keeps per-target
	// failures even though only the first one is the returned error.
	Err error
}

// Wait polls the prober at the configured interval until it reports ready.
// The first attempt runs immediately, so a target that is already up costs
// one probe and no sleeping.
//
// A timeout or exhausted attempt limit yields an error matching
// ErrUnavailable that carries the last probe failure as text. Cancellation
// of ctx yields the context's error instead: the caller asked to stop, the
// target did not fail. In fail-fast mode a failure the probe layer
// classified as permanent aborts immediately and is returned as is.
func Wait(ctx context.Context, p probe.Prober, cfg Config) (Result, error) {
	if p == nil {
		return Result{}, fmt.Errorf("wait: prober must not be nil")
	}
	tgt := p.Target()
	if cfg.Interval <= 0 {
		return Result{}, fmt.Errorf("wait for %s: %w, got %v", tgt, ErrIntervalNotPositive, cfg.Interval)
	}
	if cfg.Timeout < 0 {
		return Result{}, fmt.Errorf("wait for %s: %w, got %v", tgt, ErrTimeoutNegative, cfg.Timeout)
	}
	if cfg.MaxAttempts < 0 {
		return Result{}, fmt.Errorf("wait for %s: %w, got %d", tgt, ErrAttemptsNegative, cfg.MaxAttempts)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	log.Info("waiting for target",
		"target", tgt.String(),
		"interval", cfg.Interval,
		"timeout", cfg.Timeout,
	)

	// attempts and lastErr need no synchronization: the poll functions
	// invoke the condition sequentially, each call completing before the
	// next is scheduled.
	start := time.Now()
	attempts := 0
	var lastErr error

	condition := func(pollCtx context.Context) (bool, error) {
		attempts++
		err := p.Probe(pollCtx)
		if err == nil {
			return true, nil
		}
		lastErr = err
		log.Debug("probe attempt failed",
			"target", tgt.String(),
			"attempt", attempts,
			"error", err,
		)

		if cfg.FailFast && probe.IsPermanent(err) {
			return false, fmt.Errorf("target %s: %w", tgt, err)
		}
		if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
			return false, unavailable(tgt.String(), attempts, lastErr)
		}
		return false, nil
	}

	var err error
	if cfg.Timeout == 0 {
		err = wait.PollUntilContextCancel(ctx, cfg.Interval, true, condition)
	} else {
		err = wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true, condition)
	}

	res := Result{Attempts: attempts, Elapsed: time.Since(start)}
	if err != nil {
		switch {
		case ctx.Err() != nil:
			res.Err = fmt.Errorf("wait for %s: %w", tgt, ctx.Err())
		case wait.Interrupted(err):
			res.Err = unavailable(tgt.String(), attempts, lastErr)
		default:
			res.Err = err
		}
		return res, res.Err
	}

	res.Ready = true
	log.Info("target ready",
		"target", tgt.String(),
		"attempts", res.Attempts,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// Entry pairs a prober with the config governing its wait, so targets in
// one launch can carry different intervals and timeouts.
type Entry struct {
	Prober probe.Prober
	Config Config
}

// WaitAll waits for every entry concurrently. The first failure cancels
// the remaining waits and is the returned error; results are positional,
// matching the entries slice, and describe each wait's progress at the
// moment it concluded.
func WaitAll(ctx context.Context, entries []Entry) ([]Result, error) {
	results := make([]Result, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() error {
			res, err := Wait(gctx, e.Prober, e.Config)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// unavailable builds the terminal not-ready error. The last probe failure
// travels as text so the chain stays matchable on ErrUnavailable alone.
func unavailable(target string, attempts int, lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("target %s: %w after %d attempts", target, ErrUnavailable, attempts)
	}
	return fmt.Errorf("target %s: %w after %d attempts, last error: %v", target, ErrUnavailable, attempts, lastErr)
}
