package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
	defaultResetTTL   = 10 * time.Minute
	defaultVerifyTTL  = 24 * time.Hour

	// defaultSessionLimit caps concurrently valid refresh tokens per
	// account; the oldest is evicted first.
	defaultSessionLimit = 5
)

// Service implements the authentication and session lifecycle: credential
// checks, token issuance, the session guard, and refresh rotation.
type Service struct {
	store  Store
	tokens *TokenIssuer
	now    func() time.Time

	refreshTTL   time.Duration
	resetTTL     time.Duration
	verifyTTL    time.Duration
	sessionLimit int
}

// ServiceOption configures Service behavior.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	issuer       string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	resetTTL     time.Duration
	verifyTTL    time.Duration
	sessionLimit int
	now          func() time.Time
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(c *serviceConfig) { c.issuer = strings.TrimSpace(issuer) }
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

// WithSessionLimit overrides the per-account session cap.
func WithSessionLimit(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.sessionLimit = n
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewService constructs the auth service. An empty signing secret fails
// here, at startup, never per request.
func NewService(store Store, secret string, opts ...ServiceOption) (*Service, error) {
	cfg := serviceConfig{
		accessTTL:    defaultAccessTTL,
		refreshTTL:   defaultRefreshTTL,
		resetTTL:     defaultResetTTL,
		verifyTTL:    defaultVerifyTTL,
		sessionLimit: defaultSessionLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	issuer, err := NewTokenIssuer(secret, cfg.issuer, cfg.accessTTL, cfg.now)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:        store,
		tokens:       issuer,
		now:          cfg.now,
		refreshTTL:   cfg.refreshTTL,
		resetTTL:     cfg.resetTTL,
		verifyTTL:    cfg.verifyTTL,
		sessionLimit: cfg.sessionLimit,
	}, nil
}

// TokenPair is the access/refresh credential pair handed out on signup,
// login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SignupParams carries the validated signup request body.
type SignupParams struct {
	FullName string
	Email    string
	Phone    string
	Password string
	Role     string
	ClinicID string
	Language string
}

// Signup creates an account and issues its first token pair.
func (s *Service) Signup(ctx context.Context, p SignupParams) (*Account, TokenPair, error) {
	if err := ValidateFullName(p.FullName); err != nil {
		return nil, TokenPair{}, err
	}
	if err := ValidateEmail(p.Email); err != nil {
		return nil, TokenPair{}, err
	}
	if err := ValidatePhone(p.Phone); err != nil {
		return nil, TokenPair{}, err
	}
	if err := ValidatePassword(p.Password); err != nil {
		return nil, TokenPair{}, err
	}
	role, err := ParseRole(p.Role)
	if err != nil {
		return nil, TokenPair{}, err
	}
	lang, err := ParseLanguage(p.Language)
	if err != nil {
		return nil, TokenPair{}, err
	}
	clinicID := strings.TrimSpace(p.ClinicID)
	if role == RoleStaff && clinicID == "" {
		return nil, TokenPair{}, fmt.Errorf("%w: clinic is required for staff accounts", ErrInvalidInput)
	}

	hash, err := HashPassword(ctx, p.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	acct := &Account{
		FullName:     strings.TrimSpace(p.FullName),
		Email:        NormalizeEmail(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
		Role:         role,
		Language:     lang,
		PasswordHash: hash,
		IsActive:     true,
		ClinicID:     clinicID,
	}
	if err := s.store.Accounts(ctx).Create(ctx, acct); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.mintPair(ctx, acct)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return acct, pair, nil
}

// Login authenticates credentials and issues a fresh token pair. Every
// rejection surfaces as ErrUnauthorized regardless of which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, TokenPair, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, ErrUnauthorized
	}
	acct, err := s.store.Accounts(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrUnauthorized
		}
		return nil, TokenPair{}, err
	}
	if !acct.IsActive {
		return nil, TokenPair{}, ErrUnauthorized
	}
	if !VerifyPassword(acct.PasswordHash, password) {
		return nil, TokenPair{}, ErrUnauthorized
	}

	now := s.now().UTC()
	if err := s.store.Accounts(ctx).SetLastLogin(ctx, acct.ID, now); err != nil {
		return nil, TokenPair{}, err
	}
	acct.LastLogin = &now

	pair, err := s.mintPair(ctx, acct)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return acct, pair, nil
}

// Refresh rotates the presented refresh token: the old record is revoked
// and a new pair minted. A secret mismatch against a live record revokes
// that record outright, treating the presentation as a replay.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Account, TokenPair, error) {
	tokenID, secret, err := SplitRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidToken
	}
	store := s.store.RefreshTokens(ctx)
	rec, err := store.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidToken
		}
		return nil, TokenPair{}, err
	}
	if rec.Revoked || s.now().After(rec.ExpiresAt) {
		return nil, TokenPair{}, ErrInvalidToken
	}
	if !MatchRefreshSecret(rec.SecretHash, secret) {
		_ = store.MarkRevoked(ctx, rec.ID)
		return nil, TokenPair{}, ErrInvalidToken
	}

	acct, err := s.store.Accounts(ctx).Find(ctx, rec.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidToken
		}
		return nil, TokenPair{}, err
	}
	if !acct.IsActive {
		return nil, TokenPair{}, ErrInvalidToken
	}

	if err := store.MarkRevoked(ctx, rec.ID); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.mintPair(ctx, acct)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return acct, pair, nil
}

// Logout removes the presented refresh token from the account's sessions.
// An unknown or already-removed token is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, accountID, refreshToken string) error {
	tokenID, _, err := SplitRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	return s.store.RefreshTokens(ctx).Delete(ctx, accountID, tokenID)
}

// Authenticate is the session guard. It verifies the access token, reloads
// the account, and rejects deactivated accounts and tokens issued before
// the last password change. All failures collapse into ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Account, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	acct, err := s.store.Accounts(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !acct.IsActive {
		return nil, ErrInvalidToken
	}
	if s.passwordChangedAfter(acct, claims.IssuedAt.Time) {
		return nil, ErrInvalidToken
	}
	return acct, nil
}

// Me returns the account for an authenticated identity.
func (s *Service) Me(ctx context.Context, accountID string) (*Account, error) {
	return s.store.Accounts(ctx).Find(ctx, accountID)
}

// UpdateParams carries the mutable non-secret profile fields. Nil means
// leave unchanged.
type UpdateParams struct {
	FullName *string
	Phone    *string
	Language *string
}

// UpdateProfile mutates the non-secret fields only. Email, role and the
// secret never change through this path.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, p UpdateParams) (*Account, error) {
	acct, err := s.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p.FullName != nil {
		if err := ValidateFullName(*p.FullName); err != nil {
			return nil, err
		}
		acct.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Phone != nil {
		if err := ValidatePhone(*p.Phone); err != nil {
			return nil, err
		}
		acct.Phone = strings.TrimSpace(*p.Phone)
		acct.PhoneVerified = false
	}
	if p.Language != nil {
		lang, err := ParseLanguage(*p.Language)
		if err != nil {
			return nil, err
		}
		acct.Language = lang
	}
	if err := s.store.Accounts(ctx).UpdateProfile(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// UpdatePassword verifies the current password, swaps the hash, and revokes
// every session so existing tokens die with the old credential.
func (s *Service) UpdatePassword(ctx context.Context, accountID, current, next string) error {
	acct, err := s.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		return err
	}
	if !VerifyPassword(acct.PasswordHash, current) {
		return ErrUnauthorized
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(ctx, next)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.store.Accounts(ctx).UpdatePassword(ctx, accountID, hash, now); err != nil {
		return err
	}
	return s.store.RefreshTokens(ctx).RevokeAllForAccount(ctx, accountID)
}

// ForgotPassword generates a reset token for out-of-band delivery. An
// unknown email returns empty output and no error so callers can answer
// identically either way.
func (s *Service) ForgotPassword(ctx context.Context, email string) (plaintext string, err error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	acct, err := s.store.Accounts(ctx).FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	plaintext, hash, err := NewActionToken()
	if err != nil {
		return "", err
	}
	expires := s.now().UTC().Add(s.resetTTL)
	if err := s.store.Accounts(ctx).SetResetToken(ctx, acct.ID, hash, expires); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token is single-use: consumption clears the hash and expiry atomically.
func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	now := s.now().UTC()
	acct, err := s.store.Accounts(ctx).ConsumeResetToken(ctx, HashActionToken(token), now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	hash, err := HashPassword(ctx, next)
	if err != nil {
		return err
	}
	if err := s.store.Accounts(ctx).UpdatePassword(ctx, acct.ID, hash, now); err != nil {
		return err
	}
	return s.store.RefreshTokens(ctx).RevokeAllForAccount(ctx, acct.ID)
}

// RequestEmailVerification issues a fresh verification token, replacing any
// outstanding one.
func (s *Service) RequestEmailVerification(ctx context.Context, accountID string) (plaintext string, err error) {
	acct, err := s.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acct.EmailVerified {
		return "", fmt.Errorf("%w: email already verified", ErrInvalidInput)
	}
	plaintext, hash, err := NewActionToken()
	if err != nil {
		return "", err
	}
	expires := s.now().UTC().Add(s.verifyTTL)
	if err := s.store.Accounts(ctx).SetVerifyToken(ctx, acct.ID, hash, expires); err != nil {
		return "", err
	}
	return plaintext, nil
}

// VerifyEmail consumes a verification token and marks the email verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	_, err := s.store.Accounts(ctx).ConsumeVerifyToken(ctx, HashActionToken(token), s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// Deactivate disables authentication for the account and kills its
// sessions. Records are never hard-deleted here.
func (s *Service) Deactivate(ctx context.Context, accountID string) error {
	if err := s.store.Accounts(ctx).SetActive(ctx, accountID, false); err != nil {
		return err
	}
	return s.store.RefreshTokens(ctx).RevokeAllForAccount(ctx, accountID)
}

// ListAccounts returns all accounts; admin-only at the HTTP layer.
func (s *Service) ListAccounts(ctx context.Context) ([]*Account, error) {
	return s.store.Accounts(ctx).List(ctx)
}

// Stats returns the per-role account aggregate; admin-only at the HTTP layer.
func (s *Service) Stats(ctx context.Context) ([]RoleStats, error) {
	return s.store.Accounts(ctx).Stats(ctx)
}

func (s *Service) mintPair(ctx context.Context, acct *Account) (TokenPair, error) {
	now := s.now().UTC()
	access, accessExp, err := s.tokens.SignAccess(acct.ID, acct.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rec, err := NewRefreshToken(acct.ID, now, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, rec, s.sessionLimit); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// passwordChangedAfter compares at whole-second precision because JWT iat
// carries no sub-second component. A token issued in the same second as the
// change is rejected.
func (s *Service) passwordChangedAfter(acct *Account, issuedAt time.Time) bool {
	if acct.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() <= acct.PasswordChangedAt.Unix()
}
