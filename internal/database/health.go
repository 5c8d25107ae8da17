package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckHealth pings the pool with a short timeout; used by the readiness
// probe when the postgres sink is configured.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return pool.Ping(ctx)
}
