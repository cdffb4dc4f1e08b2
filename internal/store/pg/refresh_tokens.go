package pg

import (
	"context"
	"database/sql"
	"time"

	"medqueue.rw/internal/auth"
)

type refreshTokenStore struct{ db *sql.DB }

// Create inserts the record and prunes the account's sessions inside one
// transaction: dead rows first, then FIFO eviction past the limit.
func (s *refreshTokenStore) Create(ctx context.Context, tok *auth.RefreshToken, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		delete from refresh_tokens
		where account_id=$1 and (revoked or expires_at <= $2)
	`, tok.AccountID, tok.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into refresh_tokens (id, account_id, secret_hash, expires_at, created_at)
		values ($1,$2,$3,$4,$5)
	`, tok.ID, tok.AccountID, tok.SecretHash, tok.ExpiresAt, tok.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		delete from refresh_tokens
		where account_id=$1 and id not in (
			select id from refresh_tokens
			where account_id=$1
			order by created_at desc, id desc
			limit $2
		)
	`, tok.AccountID, limit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *refreshTokenStore) Find(ctx context.Context, id string) (*auth.RefreshToken, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, account_id, secret_hash, expires_at, created_at, revoked
		from refresh_tokens where id=$1
	`, id)
	var tok auth.RefreshToken
	if err := row.Scan(&tok.ID, &tok.AccountID, &tok.SecretHash, &tok.ExpiresAt, &tok.CreatedAt, &tok.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &tok, nil
}

func (s *refreshTokenStore) MarkRevoked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where id=$1`, id)
	return err
}

func (s *refreshTokenStore) Delete(ctx context.Context, accountID, id string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where id=$1 and account_id=$2`, id, accountID)
	return err
}

func (s *refreshTokenStore) RevokeAllForAccount(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where account_id=$1`, accountID)
	return err
}

func (s *refreshTokenStore) CountActive(ctx context.Context, accountID string, now time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		select count(*) from refresh_tokens
		where account_id=$1 and not revoked and expires_at > $2
	`, accountID, now)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
