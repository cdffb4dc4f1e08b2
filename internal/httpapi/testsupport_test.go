package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"medqueue.rw/internal/auth"
	"medqueue.rw/internal/clinic"
)

// fakeStore backs the HTTP tests with in-memory auth and clinic state.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*auth.Account
	tokens   map[string]*auth.RefreshToken
	clinics  map[string]*clinic.Clinic
	doctors  map[string]*clinic.Doctor
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*auth.Account),
		tokens:   make(map[string]*auth.RefreshToken),
		clinics:  make(map[string]*clinic.Clinic),
		doctors:  make(map[string]*clinic.Doctor),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%04d", prefix, f.seq)
}

func (f *fakeStore) Accounts(context.Context) auth.AccountStore           { return &fakeAccounts{f} }
func (f *fakeStore) RefreshTokens(context.Context) auth.RefreshTokenStore { return &fakeTokens{f} }

type fakeAccounts struct{ *fakeStore }

func (f *fakeAccounts) Create(ctx context.Context, a *auth.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return auth.ErrConflict
		}
	}
	if a.ID == "" {
		a.ID = f.nextID("acct")
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeAccounts) Find(ctx context.Context, id string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeAccounts) List(ctx context.Context) ([]*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*auth.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAccounts) Stats(ctx context.Context) ([]auth.RoleStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byRole := make(map[auth.Role]*auth.RoleStats)
	for _, a := range f.accounts {
		st, ok := byRole[a.Role]
		if !ok {
			st = &auth.RoleStats{Role: a.Role}
			byRole[a.Role] = st
		}
		st.Count++
		if a.IsActive {
			st.Active++
		}
	}
	out := make([]auth.RoleStats, 0, len(byRole))
	for _, st := range byRole {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, a *auth.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[a.ID]
	if !ok {
		return auth.ErrNotFound
	}
	stored.FullName = a.FullName
	stored.Phone = a.Phone
	stored.Language = a.Language
	stored.PhoneVerified = a.PhoneVerified
	return nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.PasswordHash = hash
	at := changedAt
	a.PasswordChangedAt = &at
	return nil
}

func (f *fakeAccounts) SetActive(ctx context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (f *fakeAccounts) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	t := at
	a.LastLogin = &t
	return nil
}

func (f *fakeAccounts) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.ResetTokenHash = tokenHash
	e := expires
	a.ResetExpires = &e
	return nil
}

func (f *fakeAccounts) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ResetTokenHash == tokenHash && a.ResetExpires != nil && a.ResetExpires.After(now) {
			a.ResetTokenHash = ""
			a.ResetExpires = nil
			cp := *a
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeAccounts) SetVerifyToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	a.VerifyTokenHash = tokenHash
	e := expires
	a.VerifyExpires = &e
	return nil
}

func (f *fakeAccounts) ConsumeVerifyToken(ctx context.Context, tokenHash string, now time.Time) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.VerifyTokenHash == tokenHash && a.VerifyExpires != nil && a.VerifyExpires.After(now) {
			a.VerifyTokenHash = ""
			a.VerifyExpires = nil
			a.EmailVerified = true
			cp := *a
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

type fakeTokens struct{ *fakeStore }

func (f *fakeTokens) Create(ctx context.Context, tok *auth.RefreshToken, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tok
	f.tokens[tok.ID] = &cp
	return nil
}

func (f *fakeTokens) Find(ctx context.Context, id string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (f *fakeTokens) MarkRevoked(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[id]
	if !ok {
		return auth.ErrNotFound
	}
	tok.Revoked = true
	return nil
}

func (f *fakeTokens) Delete(ctx context.Context, accountID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[id]
	if ok && tok.AccountID == accountID {
		delete(f.tokens, id)
	}
	return nil
}

func (f *fakeTokens) RevokeAllForAccount(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tok := range f.tokens {
		if tok.AccountID == accountID {
			tok.Revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) CountActive(ctx context.Context, accountID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tok := range f.tokens {
		if tok.AccountID == accountID && !tok.Revoked && tok.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateClinic(ctx context.Context, c *clinic.Clinic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.nextID("clinic")
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.clinics[c.ID] = &cp
	return nil
}

func (f *fakeStore) FindClinic(ctx context.Context, id string) (*clinic.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clinics[id]
	if !ok {
		return nil, clinic.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListClinics(ctx context.Context, filter clinic.Filter) ([]*clinic.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*clinic.Clinic
	for _, c := range f.clinics {
		if filter.Province != "" && c.Location.Province != filter.Province {
			continue
		}
		if filter.District != "" && c.Location.District != filter.District {
			continue
		}
		if filter.Sector != "" && c.Location.Sector != filter.Sector {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateClinic(ctx context.Context, c *clinic.Clinic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clinics[c.ID]; !ok {
		return clinic.ErrNotFound
	}
	cp := *c
	f.clinics[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteClinic(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clinics[id]; !ok {
		return clinic.ErrNotFound
	}
	delete(f.clinics, id)
	return nil
}

func (f *fakeStore) CreateDoctor(ctx context.Context, d *clinic.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		d.ID = f.nextID("doc")
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	f.doctors[d.ID] = &cp
	return nil
}

func (f *fakeStore) FindDoctor(ctx context.Context, id string) (*clinic.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doctors[id]
	if !ok {
		return nil, clinic.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) UpdateDoctor(ctx context.Context, d *clinic.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doctors[d.ID]; !ok {
		return clinic.ErrNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	f.doctors[d.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteDoctor(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doctors[id]; !ok {
		return clinic.ErrNotFound
	}
	delete(f.doctors, id)
	return nil
}

func (f *fakeStore) ListDoctors(ctx context.Context, clinicID string) ([]*clinic.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*clinic.Doctor
	for _, d := range f.doctors {
		if clinicID != "" && d.ClinicID != clinicID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

const testSigningSecret = "httpapi-test-signing-secret-0123456789"

// newTestAPI builds a fully wired handler over the fake store. The rate
// limiter is configured wide open so request counts never interfere.
func newTestAPI(t *testing.T) (*fakeStore, http.Handler) {
	t.Helper()
	store := newFakeStore()
	authSvc, err := auth.NewService(store, testSigningSecret)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	api := New(authSvc, clinic.NewService(store), ReadyProbe{}, "test",
		WithRateLimit(1000, 1000))
	return store, api.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
