package auth

import "time"

// Account is the credential store's central entity: identity, hashed secret,
// role, verification state and the token-lifecycle fields hanging off it.
type Account struct {
	ID       string
	FullName string
	Email    string
	Phone    string
	Role     Role
	Language Language

	// PasswordHash is the bcrypt-derived secret. It never appears in any
	// read-path projection; see Profile.
	PasswordHash string

	// PasswordChangedAt is nil until the hash changes after creation.
	// Access tokens issued before it are rejected by the session guard.
	PasswordChangedAt *time.Time

	IsActive      bool
	EmailVerified bool
	PhoneVerified bool

	// ClinicID is required when Role is staff, absent otherwise.
	ClinicID string

	LastLogin *time.Time

	ResetTokenHash  string
	ResetExpires    *time.Time
	VerifyTokenHash string
	VerifyExpires   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the safe, client-facing projection of an account. No secret
// hash, no token hashes.
type Profile struct {
	ID            string     `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Role          Role       `json:"role"`
	Language      Language   `json:"language"`
	ClinicID      string     `json:"clinic_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Profile returns the account's client-facing projection.
func (a *Account) Profile() Profile {
	return Profile{
		ID:            a.ID,
		FullName:      a.FullName,
		Email:         a.Email,
		Phone:         a.Phone,
		Role:          a.Role,
		Language:      a.Language,
		ClinicID:      a.ClinicID,
		IsActive:      a.IsActive,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
		LastLogin:     a.LastLogin,
		CreatedAt:     a.CreatedAt,
	}
}

// RefreshToken is a persisted session record. The opaque bearer string is
// never stored; only the SHA-256 of its secret half is kept at rest.
type RefreshToken struct {
	ID         string
	AccountID  string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
}

// RoleStats is one row of the admin activity aggregate: accounts per role
// and how many of them are active.
type RoleStats struct {
	Role   Role `json:"role"`
	Count  int  `json:"count"`
	Active int  `json:"active"`
}
