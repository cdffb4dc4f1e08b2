package obs

import "strings"

// CanonicalPath collapses identifier segments so metric labels stay bounded.
// Without a router we normalize by hand: /v1/accounts/<id> and token-bearing
// reset/verify paths would otherwise explode label cardinality.
func CanonicalPath(raw string) string {
	if raw == "" {
		return "/"
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	for prefix, placeholder := range map[string]string{
		"/v1/auth/reset-password/": ":token",
		"/v1/auth/verify-email/":   ":token",
		"/v1/accounts/":            ":id",
		"/v1/clinics/":             ":id",
		"/v1/doctors/":             ":id",
	} {
		rest, ok := strings.CutPrefix(raw, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimSuffix(rest, "/")
		if rest == "" || rest == "stats" || strings.Contains(rest, "/") {
			continue
		}
		return prefix + placeholder
	}
	return raw
}
