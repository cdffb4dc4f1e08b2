package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"medqueue.rw/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/signup",
	"/v1/auth/login",
	"/v1/auth/refresh-token",
	"/v1/auth/forgot-password",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

var publicPrefixes = []string{
	"/v1/auth/reset-password/",
	"/v1/auth/verify-email/",
}

// Clinic and doctor reads are open; every mutation goes through the guard.
var publicReadPrefixes = []string{
	"/v1/clinics",
	"/v1/doctors",
}

// withAuth is the session guard: it authenticates every non-public request
// and binds the resolved identity to the context. Each failure terminates
// the chain with the same 401 shape.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		// Unmatched paths fall to the catch-all; a 404 must not hide
		// behind a 401.
		if _, pattern := a.mux.Handler(r); pattern == "/" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		acct, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				unauthorized(w, r, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
			AccountID: acct.ID,
			Role:      acct.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits the request iff the authenticated role is in the
// allow-set. It must run after the session guard; an absent identity means
// the guard never ran, which is a 401, not a 403.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allow := auth.Allow(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, r, "not authorized")
				return
			}
			if !allow.Allows(identity.Role) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_role"`)
				writeError(w, r, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireRole is the in-handler variant for routes whose read and write
// methods carry different allow-sets.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return auth.Identity{}, false
	}
	if !auth.Allow(roles...).Allows(identity.Role) {
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_role"`)
		writeError(w, r, http.StatusForbidden, "permission denied")
		return auth.Identity{}, false
	}
	return identity, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicRequest(r *http.Request) bool {
	path := r.URL.Path
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		for _, prefix := range publicReadPrefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
	}
	return false
}
