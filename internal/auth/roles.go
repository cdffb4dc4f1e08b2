package auth

import (
	"fmt"
	"strings"
)

// Role is the coarse capability class gating endpoint access.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes and validates a role string. Empty input defaults to
// patient, matching the signup default.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case "":
		return RolePatient, nil
	case RolePatient:
		return RolePatient, nil
	case RoleStaff:
		return RoleStaff, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: role must be patient, staff, or admin", ErrInvalidInput)
	}
}

// AllowSet is a declarative allow-list of roles for a protected operation.
type AllowSet map[Role]struct{}

// Allow builds an AllowSet from the given roles.
func Allow(roles ...Role) AllowSet {
	set := make(AllowSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows reports whether the role is admitted by the set.
func (s AllowSet) Allows(role Role) bool {
	_, ok := s[role]
	return ok
}

// Language is the account's preferred interface language.
type Language string

const (
	LanguageEnglish     Language = "en"
	LanguageKinyarwanda Language = "rw"
	LanguageFrench      Language = "fr"
)

// ParseLanguage validates a language code. Empty input defaults to English.
func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.TrimSpace(strings.ToLower(raw))) {
	case "":
		return LanguageEnglish, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageKinyarwanda:
		return LanguageKinyarwanda, nil
	case LanguageFrench:
		return LanguageFrench, nil
	default:
		return "", fmt.Errorf("%w: language must be en, rw, or fr", ErrInvalidInput)
	}
}
