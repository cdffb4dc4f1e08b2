package httpapi

import (
	"net/http"
	"strings"

	"medqueue.rw/internal/auth"
)

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	accounts, err := a.auth.ListAccounts(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	profiles := make([]auth.Profile, 0, len(accounts))
	for _, acct := range accounts {
		profiles = append(profiles, acct.Profile())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": profiles,
		"count":    len(profiles),
	})
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if rest == "stats" {
		a.handleAccountStats(w, r)
		return
	}
	acct, err := a.auth.Me(r.Context(), rest)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": acct.Profile()})
}

func (a *API) handleAccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.auth.Stats(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
