package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/readygate/readygate/internal/target"
)

// postgresProber considers its target ready when a connection completes the
// full startup handshake and answers a ping. Unlike a bare TCP probe this
// waits out the window where postgres accepts connections but still refuses
// queries during recovery.
type postgresProber struct {
	tgt     target.Target
	timeout time.Duration
}

func newPostgresProber(t target.Target, opts Options) (*postgresProber, error) {
	if err := validateDSN(t.DSN); err != nil {
		return nil, fmt.Errorf("probe %s: %w", t, err)
	}
	return &postgresProber{tgt: t, timeout: opts.Timeout}, nil
}

func (p *postgresProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, p.tgt.DSN)
	if err != nil {
		return fmt.Errorf("connect %s: %w", p.tgt, classifyPostgres(err))
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", p.tgt, classifyPostgres(err))
	}
	return nil
}

// classifyPostgres marks server responses that retrying cannot heal: wrong
// credentials or a database that does not exist. Everything else, including
// "the system is starting up", stays retryable.
func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.InvalidPassword,
		pgerrcode.InvalidAuthorizationSpecification,
		pgerrcode.InvalidCatalogName:
		return Permanent(err)
	}
	return err
}

func (p *postgresProber) Target() target.Target { return p.tgt }
