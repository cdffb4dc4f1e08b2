package pg

import (
	"context"
	"database/sql"
	"time"

	"medqueue.rw/internal/auth"
	"medqueue.rw/internal/ids"
)

type accountStore struct{ db *sql.DB }

const accountColumns = `id, full_name, email, phone, role, language, password_hash,
	password_changed_at, is_active, email_verified, phone_verified, clinic_id,
	last_login, reset_token_hash, reset_expires, verify_token_hash, verify_expires,
	created_at, updated_at`

func (s *accountStore) Create(ctx context.Context, a *auth.Account) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into accounts (id, full_name, email, phone, role, language, password_hash,
			is_active, email_verified, phone_verified, clinic_id)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,nullif($11,''))
		returning created_at, updated_at
	`, a.ID, a.FullName, a.Email, a.Phone, string(a.Role), string(a.Language),
		a.PasswordHash, a.IsActive, a.EmailVerified, a.PhoneVerified, a.ClinicID)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *accountStore) Find(ctx context.Context, id string) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email=$1`, email)
	return scanAccount(row)
}

func (s *accountStore) List(ctx context.Context) ([]*auth.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *accountStore) Stats(ctx context.Context) ([]auth.RoleStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		select role, count(*), count(*) filter (where is_active)
		from accounts group by role order by role
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []auth.RoleStats
	for rows.Next() {
		var (
			role string
			st   auth.RoleStats
		)
		if err := rows.Scan(&role, &st.Count, &st.Active); err != nil {
			return nil, err
		}
		st.Role = auth.Role(role)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *accountStore) UpdateProfile(ctx context.Context, a *auth.Account) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set full_name=$2, phone=$3, language=$4, phone_verified=$5, updated_at=now()
		where id=$1
	`, a.ID, a.FullName, a.Phone, string(a.Language), a.PhoneVerified)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *accountStore) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set password_hash=$2, password_changed_at=$3, updated_at=now()
		where id=$1
	`, id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *accountStore) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set is_active=$2, updated_at=now() where id=$1`, id, active)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *accountStore) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set last_login=$2, updated_at=now() where id=$1`, id, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *accountStore) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set reset_token_hash=$2, reset_expires=$3, updated_at=now()
		where id=$1
	`, id, tokenHash, expires)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ConsumeResetToken claims and clears the token pair in one statement so a
// concurrent second use can never observe a half-cleared record.
func (s *accountStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		update accounts
		set reset_token_hash=null, reset_expires=null, updated_at=now()
		where reset_token_hash=$1 and reset_expires > $2
		returning `+accountColumns+`
	`, tokenHash, now)
	return scanAccount(row)
}

func (s *accountStore) SetVerifyToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set verify_token_hash=$2, verify_expires=$3, updated_at=now()
		where id=$1
	`, id, tokenHash, expires)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *accountStore) ConsumeVerifyToken(ctx context.Context, tokenHash string, now time.Time) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		update accounts
		set verify_token_hash=null, verify_expires=null, email_verified=true, updated_at=now()
		where verify_token_hash=$1 and verify_expires > $2
		returning `+accountColumns+`
	`, tokenHash, now)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*auth.Account, error) {
	var (
		a        auth.Account
		role     string
		language string

		passwordChangedAt sql.NullTime
		clinicID          sql.NullString
		lastLogin         sql.NullTime
		resetHash         sql.NullString
		resetExpires      sql.NullTime
		verifyHash        sql.NullString
		verifyExpires     sql.NullTime
	)
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &role, &language,
		&a.PasswordHash, &passwordChangedAt, &a.IsActive, &a.EmailVerified,
		&a.PhoneVerified, &clinicID, &lastLogin, &resetHash, &resetExpires,
		&verifyHash, &verifyExpires, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	a.Role = auth.Role(role)
	a.Language = auth.Language(language)
	if passwordChangedAt.Valid {
		t := passwordChangedAt.Time
		a.PasswordChangedAt = &t
	}
	a.ClinicID = clinicID.String
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	a.ResetTokenHash = resetHash.String
	if resetExpires.Valid {
		t := resetExpires.Time
		a.ResetExpires = &t
	}
	a.VerifyTokenHash = verifyHash.String
	if verifyExpires.Valid {
		t := verifyExpires.Time
		a.VerifyExpires = &t
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
