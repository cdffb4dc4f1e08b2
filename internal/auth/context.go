package auth

import "context"

type identityContextKey struct{}

// Identity is what the session guard binds to the request context once every
// check has passed: the resolved account id and role, nothing more.
type Identity struct {
	AccountID string
	Role      Role
}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || v.AccountID == "" {
		return Identity{}, false
	}
	return v, true
}
