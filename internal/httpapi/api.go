package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"medqueue.rw/internal/auth"
	"medqueue.rw/internal/clinic"
	"medqueue.rw/internal/obs"
)

// ReadyProbe reports whether the service can serve traffic, pinging the
// database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth and clinic services.
type API struct {
	mux         *http.ServeMux
	auth        *auth.Service
	clinics     *clinic.Service
	readyProbe  ReadyProbe
	version     string
	corsOrigins []string

	rateBurst     int
	ratePerSecond int
}

// Option configures the API.
type Option func(*API)

// WithCORSOrigins sets the allowed cross-origin hosts.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// WithRateLimit overrides the per-IP token-bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSecond = perSecond
		}
	}
}

// New wires routes onto a fresh mux.
func New(authSvc *auth.Service, clinicSvc *clinic.Service, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:           http.NewServeMux(),
		auth:          authSvc,
		clinics:       clinicSvc,
		readyProbe:    rp,
		version:       version,
		rateBurst:     20,
		ratePerSecond: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh-token", a.handleRefreshToken)
	a.mux.HandleFunc("/v1/auth/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc("/v1/auth/reset-password/", a.handleResetPassword)
	a.mux.HandleFunc("/v1/auth/verify-email/", a.handleVerifyEmail)

	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.HandleFunc("/v1/auth/update-me", a.handleUpdateMe)
	a.mux.HandleFunc("/v1/auth/update-password", a.handleUpdatePassword)
	a.mux.HandleFunc("/v1/auth/delete-me", a.handleDeleteMe)
	a.mux.HandleFunc("/v1/auth/request-verification", a.handleRequestVerification)

	a.mux.Handle("/v1/accounts", RequireRole(auth.RoleAdmin)(http.HandlerFunc(a.handleAccountsCollection)))
	a.mux.Handle("/v1/accounts/", RequireRole(auth.RoleAdmin)(http.HandlerFunc(a.handleAccountResource)))

	a.mux.HandleFunc("/v1/clinics", a.handleClinicsCollection)
	a.mux.HandleFunc("/v1/clinics/", a.handleClinicResource)
	a.mux.HandleFunc("/v1/doctors", a.handleDoctorsCollection)
	a.mux.HandleFunc("/v1/doctors/", a.handleDoctorResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
