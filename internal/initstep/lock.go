package initstep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is the interval between consecutive attempts to acquire
// the init lock while another replica holds it.
const lockRetryInterval = 50 * time.Millisecond

// acquireLock takes an exclusive lock on the given path, retrying at
// lockRetryInterval until it succeeds or the context ends.
func acquireLock(ctx context.Context, path string) (*flock.Flock, error) {
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire init lock %s: %w", path, err)
	}
	if !locked {
		// TryLockContext reports failure through the error, but guard the
		// (false, nil) case as well.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire init lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquire init lock %s: lock not acquired", path)
	}
	return fl, nil
}

// releaseLock releases the lock and closes its file descriptor. The lock
// file stays on disk: removing it could invalidate a lock another replica
// acquired concurrently.
func releaseLock(log *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		log.Debug("failed to release init lock", "path", fl.Path(), "error", err)
	}
}
