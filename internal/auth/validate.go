package auth

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	// Rwandan numbers: +250 or leading 0, nine digits after.
	phonePattern = regexp.MustCompile(`^(\+250|0)[0-9]{9}$`)
)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape after normalization.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}

// ValidatePhone checks the Rwandan phone number format.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
	}
	return nil
}

// ValidateFullName bounds the display name.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 100 {
		return fmt.Errorf("%w: full name must be between 2 and 100 characters", ErrInvalidInput)
	}
	return nil
}
