package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
)

// ErrInvalidToken indicates an access or refresh token failed validation.
// Every session-guard failure collapses into this value so callers cannot
// distinguish which check rejected the request.
var ErrInvalidToken = errors.New("auth: invalid token")
