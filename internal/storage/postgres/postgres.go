package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the pgx connection pool behind the replication journal.
type Pool struct {
	*pgxpool.Pool
}

// NewPool opens a pool for the journal and verifies the database is
// reachable before any replication depends on it.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.Pool.Close()
}

// uniqueViolation is the SQLSTATE raised when an insert collides with the
// replications primary key.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a primary-key collision, the
// journal's signal for a redelivered event.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isNoRows reports whether a lookup matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
