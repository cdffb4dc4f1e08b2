package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"medqueue.rw/internal/auth"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ auth.Store = (*Store)(nil)

// Store implements the auth and clinic persistence interfaces on PostgreSQL
// through database/sql with the pgx stdlib driver.
type Store struct {
	db *sql.DB
}

// New wraps an open connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Accounts(ctx context.Context) auth.AccountStore {
	return &accountStore{db: s.db}
}

func (s *Store) RefreshTokens(ctx context.Context) auth.RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
