package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apotel "github.com/Strob0t/AgilePulse/internal/adapter/otel"
	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/port/database"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	metrics *apotel.Metrics
}

var _ database.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool. A nil
// metrics records nothing.
func NewStore(pool *pgxpool.Pool, metrics *apotel.Metrics) *Store {
	return &Store{pool: pool, metrics: metrics}
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return domain.NewQueryError("ping", s.pool.Ping(ctx))
}
