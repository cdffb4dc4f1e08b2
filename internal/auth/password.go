package auth

import (
	"context"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the single work factor used everywhere a credential is
// hashed. The value is deliberately above bcrypt.DefaultCost; do not lower
// it without re-hashing stored credentials on next login.
const bcryptCost = 12

// hashSlots bounds concurrent bcrypt computations so a burst of logins
// cannot occupy every worker with ~100ms hash calls.
var hashSlots = make(chan struct{}, 8)

// HashPassword derives the stored secret from a plaintext password.
func HashPassword(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	// bcrypt silently truncates beyond 72 bytes; reject instead.
	if len(password) > 72 {
		return "", fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	select {
	case hashSlots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-hashSlots }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with the stored hash using
// bcrypt's constant-time comparison. Any failure, including a corrupt
// stored hash, reports false; verification never bypasses by erroring.
func VerifyPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the signup/reset password policy: at least six
// characters with an upper-case letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if len(password) > 72 {
		return fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password must contain an uppercase letter, a lowercase letter, and a number", ErrInvalidInput)
	}
	return nil
}
