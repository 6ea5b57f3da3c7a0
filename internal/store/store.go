// Package store is the Postgres record-store adapter for ideiad.
//
// It owns query construction and row mapping, nothing else: ordering, the
// similarity floor and result caps are applied in SQL, business decisions
// stay in the callers. Semantic ranking uses the pgvector cosine distance
// operator (<=>); similarity is 1 - distance.
//
// The schema contract is fixed and versioned (see schema.sql); queries never
// branch on which columns exist.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"
)

// Config holds the Postgres connection configuration.
type Config struct {
	// URL is a pgx connection string.
	URL string

	// MaxConns caps the pool size. 0 uses the pgx default.
	MaxConns int32
}

// Store executes parameterized queries against Postgres. Connections are
// acquired from the pool per call and released on every exit path.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to Postgres and verifies the connection. The pgvector type is
// registered on every pooled connection.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to postgres")
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
