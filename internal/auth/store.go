package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Accounts(ctx context.Context) AccountStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// AccountStore manages account records. All mutations are single-row updates
// keyed by account id so concurrent sessions cannot lose writes.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Stats(ctx context.Context) ([]RoleStats, error)

	// UpdateProfile persists the non-secret fields only.
	UpdateProfile(ctx context.Context, a *Account) error
	// UpdatePassword swaps the hash and records the change time.
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error

	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// ConsumeResetToken claims an unexpired reset token and clears both the
	// hash and expiry in the same statement, returning the owning account.
	// ErrNotFound means unknown, expired, or already consumed.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error)

	SetVerifyToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// ConsumeVerifyToken is the email-verification analogue of
	// ConsumeResetToken; it also flips EmailVerified.
	ConsumeVerifyToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error)
}

// RefreshTokenStore manages session records.
type RefreshTokenStore interface {
	// Create inserts a record and prunes the account's sessions: expired and
	// revoked rows go first, then the oldest beyond the limit (FIFO).
	Create(ctx context.Context, tok *RefreshToken, limit int) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, id string) error
	// Delete removes the record if it exists and belongs to the account.
	// A missing record is not an error.
	Delete(ctx context.Context, accountID, id string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
	CountActive(ctx context.Context, accountID string, now time.Time) (int, error)
}
