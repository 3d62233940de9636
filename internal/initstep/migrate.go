package initstep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// database URLs
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// migration sources
)

// Migration applies database migrations in-process instead of shelling out
// to a migration binary.
type Migration struct {
	Source      string        // migration source URL, e.g. file://db/migrations
	DatabaseURL string        // database to migrate, e.g. the gated postgres target
	Timeout     time.Duration // bound for the whole run, 0 means only the launch bounds it
}

func (m Migration) enabled() bool { return m.Source != "" }

func (m Migration) validate() error {
	if !m.enabled() {
		return nil
	}
	if m.DatabaseURL == "" {
		return errors.New("migration: database url must not be empty")
	}
	if m.Timeout < 0 {
		return fmt.Errorf("migration: timeout must not be negative, got %v", m.Timeout)
	}
	return nil
}

// runMigration brings the database up to the newest migration. A database
// that is already current is success, not an error.
func runMigration(ctx context.Context, m Migration, log *slog.Logger) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	mig, err := migrate.New(m.Source, m.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", m.Source, err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warn("close migration source", "error", srcErr)
		}
		if dbErr != nil {
			log.Warn("close migration database", "error", dbErr)
		}
	}()

	// Relay cancellation: migrate finishes the migration in flight and
	// stops before the next one.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			mig.GracefulStop <- true
		case <-watcherDone:
		}
	}()

	log.Info("applying migrations", "source", m.Source)
	start := time.Now()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Warn("read migration version", "error", err)
	}
	log.Info("migrations current",
		"version", version,
		"dirty", dirty,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
