package db

import (
	"context"
	"fmt"

	"github.com/2beens/fittracker/internal/fitness"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewPoolParams struct {
	// DatabaseURL is the full postgres connection string. When empty,
	// NewPool returns fitness.ErrNotConfigured and the caller is expected
	// to run in a degraded, storage-less mode instead of crashing.
	DatabaseURL    string
	TracingEnabled bool
}

func NewPool(ctx context.Context, params NewPoolParams) (*pgxpool.Pool, error) {
	if params.DatabaseURL == "" {
		return nil, fitness.ErrNotConfigured
	}

	poolConfig, err := pgxpool.ParseConfig(params.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return pool, nil
}
