// Package postgres stores evaluated rolls and the entities and collections
// they belong to. Reads return luck.Record values so stored history feeds the
// analytics engine without a translation layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rollkeeper/internal/config"
)

// applicationName tags rollkeeper sessions in pg_stat_activity.
const applicationName = "rollkeeper"

// DefaultHealthTimeout bounds the ping Open performs after connecting.
const DefaultHealthTimeout = 5 * time.Second

// Pool is the shared pgx pool behind the roll and entity repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the roll store described by cfg.
//
// Precondition: cfg has passed config.Validate.
// Postcondition: Returns a pinged Pool or a non-nil error; nothing is left
// open on error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Open is NewPool followed by a Health check bounded by healthTimeout. The
// roll and luckreport commands connect through it.
//
// Postcondition: Returns a healthy Pool or a non-nil error; nothing is left
// open on error.
func Open(ctx context.Context, cfg config.DatabaseConfig, healthTimeout time.Duration) (*Pool, error) {
	p, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.Health(ctx, healthTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	return p, nil
}

// Health pings the roll store within timeout.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every connection. The repositories handed out by Rolls and
// Entities are unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the pgx pool, for migrations and tests.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Rolls returns the roll history repository.
func (p *Pool) Rolls() *RollRepository {
	return NewRollRepository(p.pool)
}

// Entities returns the entity and collection repository.
func (p *Pool) Entities() *EntityRepository {
	return NewEntityRepository(p.pool)
}
