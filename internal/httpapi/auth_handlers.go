package httpapi

import (
	"net/http"
	"strings"

	"medqueue.rw/internal/audit"
	"medqueue.rw/internal/auth"
	"medqueue.rw/internal/obs"
)

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ClinicID string `json:"clinic_id"`
	Language string `json:"language"`
}

type sessionResponse struct {
	Account auth.Profile   `json:"account"`
	Tokens  auth.TokenPair `json:"tokens"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, pair, err := a.auth.Signup(r.Context(), auth.SignupParams{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
		ClinicID: req.ClinicID,
		Language: req.Language,
	})
	if err != nil {
		obs.CountAuthAttempt("signup", "failure")
		handleAuthError(w, r, err)
		return
	}
	obs.CountAuthAttempt("signup", "success")
	_ = audit.LogEvent(r.Context(), "account_signup", map[string]any{
		"account_id": acct.ID,
		"role":       string(acct.Role),
	})
	writeJSON(w, http.StatusCreated, sessionResponse{Account: acct.Profile(), Tokens: pair})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, pair, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.CountAuthAttempt("login", "failure")
		handleAuthError(w, r, err)
		return
	}
	obs.CountAuthAttempt("login", "success")
	_ = audit.LogEvent(r.Context(), "account_login", map[string]any{
		"account_id": acct.ID,
	})
	writeJSON(w, http.StatusOK, sessionResponse{Account: acct.Profile(), Tokens: pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, pair, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		obs.CountAuthAttempt("refresh", "failure")
		handleAuthError(w, r, err)
		return
	}
	obs.CountAuthAttempt("refresh", "success")
	writeJSON(w, http.StatusOK, sessionResponse{Account: acct.Profile(), Tokens: pair})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Token delivery happens out of band; the response never reveals
	// whether the email is registered.
	if _, err := a.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		obs.LogError("forgot password failed", err, nil)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	token := pathTail(r.URL.Path, "/v1/auth/reset-password/")
	if token == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		obs.CountAuthAttempt("reset_password", "failure")
		handleAuthError(w, r, err)
		return
	}
	obs.CountAuthAttempt("reset_password", "success")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "password updated, sign in with the new password",
	})
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	token := pathTail(r.URL.Path, "/v1/auth/verify-email/")
	if token == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if err := a.auth.VerifyEmail(r.Context(), token); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.Logout(r.Context(), ident.AccountID, req.RefreshToken); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account_logout", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	acct, err := a.auth.Me(r.Context(), ident.AccountID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": acct.Profile()})
}

type updateMeRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Language *string `json:"language"`
}

func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, err := a.auth.UpdateProfile(r.Context(), ident.AccountID, auth.UpdateParams{
		FullName: req.FullName,
		Phone:    req.Phone,
		Language: req.Language,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": acct.Profile()})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	var req updatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.UpdatePassword(r.Context(), ident.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		obs.CountAuthAttempt("update_password", "failure")
		handleAuthError(w, r, err)
		return
	}
	obs.CountAuthAttempt("update_password", "success")
	_ = audit.LogEvent(r.Context(), "password_changed", nil)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "password updated, sign in with the new password",
	})
}

func (a *API) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	if err := a.auth.Deactivate(r.Context(), ident.AccountID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account_deactivated", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRequestVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authorized")
		return
	}
	// Delivery happens out of band, same as password reset.
	if _, err := a.auth.RequestEmailVerification(r.Context(), ident.AccountID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification link sent"})
}

// pathTail returns the single path segment after prefix, or "" when the
// remainder is empty or contains further segments.
func pathTail(path, prefix string) string {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
